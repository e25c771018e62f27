package metadomain

// ErrorResponse is the error envelope of the Graph API.
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

type ErrorDetails struct {
	Message      string      `json:"message"`
	Type         string      `json:"type"`
	Code         int         `json:"code"`
	ErrorSubcode int         `json:"error_subcode,omitempty"`
	FBTraceID    string      `json:"fbtrace_id"`
	ErrorData    interface{} `json:"error_data,omitempty"`
}

// IsTokenExpired reports whether the error is an expired access token.
// Code 190 is the expired-token code; subcodes 460, 463 and 467 cover
// password changes, expiry and invalidated sessions.
func (e *ErrorResponse) IsTokenExpired() bool {
	return e.Error.Code == 190 ||
		(e.Error.Type == "OAuthException" && (e.Error.ErrorSubcode == 460 || e.Error.ErrorSubcode == 463 || e.Error.ErrorSubcode == 467))
}

// IsRateLimited reports whether the request was throttled. Codes 4, 17 and
// 613 are the application, user and custom rate limits; subcode 80004 is the
// ads-management call budget.
func (e *ErrorResponse) IsRateLimited() bool {
	switch e.Error.Code {
	case 4, 17, 613:
		return true
	}
	return e.Error.ErrorSubcode == 80004
}

// IsPermissionDenied reports whether the platform refused the operation
// outright. Codes 200-299 are permission errors; code 10 is a denied
// application capability.
func (e *ErrorResponse) IsPermissionDenied() bool {
	if e.Error.Code == 10 {
		return true
	}
	return e.Error.Code >= 200 && e.Error.Code <= 299
}
