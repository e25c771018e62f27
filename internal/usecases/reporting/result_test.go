package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adstation/campaign-manager-api/internal/domain"
)

func TestDeriveResult(t *testing.T) {
	tests := []struct {
		name      string
		record    *domain.InsightRecord
		wantCount int64
		wantLabel string
		wantCost  float64
	}{
		{
			name: "lead objective selects the lead action",
			record: &domain.InsightRecord{
				Objective: "LEAD_GENERATION",
				Spend:     50,
				Actions: []domain.Action{
					{ActionType: "link_click", Value: 40},
					{ActionType: "lead", Value: 5},
				},
			},
			wantCount: 5,
			wantLabel: "Khách hàng tiềm năng",
			wantCost:  10,
		},
		{
			name: "reach objective short-circuits to the reach metric",
			record: &domain.InsightRecord{
				Objective: "REACH",
				Spend:     20,
				Reach:     1000,
				Actions:   []domain.Action{{ActionType: "link_click", Value: 300}},
			},
			wantCount: 1000,
			wantLabel: "Reach",
			wantCost:  0.02,
		},
		{
			name: "messaging objective walks candidates in order",
			record: &domain.InsightRecord{
				Objective: "MESSAGES",
				Spend:     30,
				Actions: []domain.Action{
					{ActionType: "post_engagement", Value: 90},
					{ActionType: "onsite_conversion.messaging_conversation_started_7d", Value: 6},
				},
			},
			wantCount: 6,
			wantLabel: "Cuộc trò chuyện được bắt đầu",
			wantCost:  5,
		},
		{
			name: "falls through to a later candidate when the first is absent",
			record: &domain.InsightRecord{
				Objective: "MESSAGES",
				Spend:     30,
				Actions:   []domain.Action{{ActionType: "post_engagement", Value: 10}},
			},
			wantCount: 10,
			wantLabel: "Lượt tương tác",
			wantCost:  3,
		},
		{
			name: "no matching action keeps the first candidate's label at zero",
			record: &domain.InsightRecord{
				Objective: "LEAD_GENERATION",
				Spend:     30,
				Actions:   []domain.Action{{ActionType: "link_click", Value: 12}},
			},
			wantCount: 0,
			wantLabel: "Khách hàng tiềm năng",
			wantCost:  0,
		},
		{
			name: "unmapped objective uses the default candidates",
			record: &domain.InsightRecord{
				Objective: "SOMETHING_NEW",
				Spend:     24,
				Actions:   []domain.Action{{ActionType: "link_click", Value: 8}},
			},
			wantCount: 8,
			wantLabel: "Lượt nhấp vào liên kết",
			wantCost:  3,
		},
		{
			name: "platform-reported unit cost is preferred over recomputation",
			record: &domain.InsightRecord{
				Objective:     "LINK_CLICKS",
				Spend:         100,
				Actions:       []domain.Action{{ActionType: "link_click", Value: 10}},
				CostPerAction: []domain.Action{{ActionType: "link_click", Value: 9.5}},
			},
			wantCount: 10,
			wantLabel: "Lượt nhấp vào liên kết",
			wantCost:  9.5,
		},
		{
			name:      "nil record yields zeros",
			record:    nil,
			wantCount: 0,
			wantLabel: "",
			wantCost:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, label, cost := DeriveResult(tt.record)
			assert.Equal(t, tt.wantCount, count)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantCost, cost)
		})
	}
}
