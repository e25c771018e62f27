package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const characters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateID creates a short id used to tag sync runs in logs.
func GenerateID() (string, error) {
	return gonanoid.Generate(characters, 6)
}
