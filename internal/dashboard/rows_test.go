package dashboard

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xela07ax/saude-console/internal/domain"
)

func TestStatusURL(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{id: "", want: ""},
		{id: "abc123", want: "/status/abc123"},
		{id: "a b", want: "/status/a%20b"},
		{id: "x/y?z", want: "/status/x%2Fy%3Fz"},
	}
	for _, tt := range tests {
		if got := statusURL(tt.id); got != tt.want {
			t.Errorf("statusURL(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	s := strings.Repeat("я", 130)
	got := truncate(s)
	if n := len([]rune(got)); n != WhyMaxChars {
		t.Fatalf("len = %d runes, want %d", n, WhyMaxChars)
	}
	if short := "short"; truncate(short) != short {
		t.Fatalf("short value changed")
	}
}

func TestLogCells(t *testing.T) {
	code := 404
	ms := 0.5
	body, err := RenderLogRows([]domain.ApiLogRecord{
		{Endpoint: "/x", StatusCode: &code, DurationMs: &ms},
	})
	if err != nil {
		t.Fatalf("RenderLogRows: %v", err)
	}
	if !strings.Contains(body, ">404</td>") || !strings.Contains(body, ">0.50</td>") {
		t.Fatalf("cells: %s", body)
	}
}

func TestChatEntryVariants(t *testing.T) {
	user, _ := RenderChatEntry(domain.ChatMessage{Role: domain.RoleUser, Text: "hi"})
	agent, _ := RenderChatEntry(domain.ChatMessage{Role: domain.RoleAgent, Text: "hello"})
	failed, _ := RenderChatEntry(domain.ChatMessage{Role: domain.RoleAgent, Text: ChatErrorMessage, IsError: true})

	if !strings.Contains(user, "user-message") || !strings.Contains(user, "justify-end") {
		t.Fatalf("user entry: %s", user)
	}
	if !strings.Contains(agent, "agent-message") || strings.Contains(agent, "text-red-500") {
		t.Fatalf("agent entry: %s", agent)
	}
	if !strings.Contains(failed, "text-red-500") {
		t.Fatalf("error entry: %s", failed)
	}
}

func TestResourceChartConfig(t *testing.T) {
	cfg := ResourceChartConfig([]domain.ResourceSummaryItem{
		{Product: "VM", AzureTotal: 10, CreatedByTerraform: 4},
		{Product: "Storage", AzureTotal: 3, CreatedByTerraform: 3},
	})

	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got["type"] != "bar" {
		t.Fatalf("type = %v", got["type"])
	}
	opts := got["options"].(map[string]any)
	if opts["responsive"] != true || opts["maintainAspectRatio"] != false {
		t.Fatalf("options = %v", opts)
	}
	scales := opts["scales"].(map[string]any)
	for _, axis := range []string{"x", "y"} {
		if scales[axis].(map[string]any)["stacked"] != true {
			t.Fatalf("axis %s not stacked", axis)
		}
	}
	if cfg.Data.Datasets[0].Label != "Total Azure" || cfg.Data.Datasets[1].Label != "Created by Terraform" {
		t.Fatalf("dataset labels = %q, %q", cfg.Data.Datasets[0].Label, cfg.Data.Datasets[1].Label)
	}
	if strings.Join(cfg.Data.Labels, ",") != "VM,Storage" {
		t.Fatalf("labels = %v", cfg.Data.Labels)
	}
}

func TestKPIFormatting(t *testing.T) {
	k := NewKPISlots(nil)
	k.Set(domain.KPISet{
		Success:    json.RawMessage(`99.25`),
		MTTR:       json.RawMessage(`null`),
		OpenAlerts: json.RawMessage(`0`),
		FailedRuns: json.RawMessage(`"n/a"`),
	})

	want := map[string]string{
		SlotSuccess:    "99.25",
		SlotMTTR:       Placeholder,
		SlotOpenAlerts: "0",
		SlotFailedRuns: "n/a",
	}
	for slot, w := range want {
		if got := k.Value(slot); got != w {
			t.Fatalf("slot %s = %q, want %q", slot, got, w)
		}
	}

	if got := formatKPI(json.RawMessage(` true `)); got != "true" {
		t.Fatalf("bool kpi = %q", got)
	}
	if got := formatKPI(nil); got != Placeholder {
		t.Fatalf("absent kpi = %q", got)
	}
}
