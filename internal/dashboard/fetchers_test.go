package dashboard

import (
	"context"
	"strings"
	"testing"
)

func newSummary(api Getter, sink Sink) (*SummaryFetcher, *KPISlots, *Canvas, *Region) {
	kpis := NewKPISlots(sink)
	canvas := NewCanvas(CanvasResources, sink)
	region := NewRegion("summary", "", "", chartErrorID, sink)
	return NewSummaryFetcher(api, kpis, canvas, region, nil, nil), kpis, canvas, region
}

func TestSummaryWithoutKPIs(t *testing.T) {
	api := newStubAPI()
	api.set(PathResourcesSummary, `{"items":[{"product":"VM","azure_total":10,"created_by_terraform":4}]}`)

	f, kpis, canvas, region := newSummary(api, nil)
	f.Fetch(context.Background())

	for _, slot := range []string{SlotSuccess, SlotMTTR, SlotOpenAlerts, SlotFailedRuns} {
		if got := kpis.Value(slot); got != Placeholder {
			t.Fatalf("slot %s = %q, want %q", slot, got, Placeholder)
		}
	}

	chart := canvas.Current()
	if chart == nil {
		t.Fatalf("chart not rendered")
	}
	cfg := chart.Config
	if len(cfg.Data.Labels) != 1 || cfg.Data.Labels[0] != "VM" {
		t.Fatalf("labels = %v, want [VM]", cfg.Data.Labels)
	}
	if got := cfg.Data.Datasets[0].Data; len(got) != 1 || got[0] != 10 {
		t.Fatalf("Total Azure = %v, want [10]", got)
	}
	if got := cfg.Data.Datasets[1].Data; len(got) != 1 || got[0] != 4 {
		t.Fatalf("Created by Terraform = %v, want [4]", got)
	}
	if region.State().ErrorVisible {
		t.Fatalf("chartError visible after success")
	}
}

func TestSummaryWithKPIs(t *testing.T) {
	api := newStubAPI()
	api.set(PathResourcesSummary, `{"kpi_success":98.5,"kpi_mttr":12,"kpi_open_alerts":3,"items":[]}`)

	f, kpis, _, _ := newSummary(api, nil)
	f.Fetch(context.Background())

	want := map[string]string{
		SlotSuccess:    "98.5",
		SlotMTTR:       "12",
		SlotOpenAlerts: "3",
		SlotFailedRuns: Placeholder,
	}
	for slot, w := range want {
		if got := kpis.Value(slot); got != w {
			t.Fatalf("slot %s = %q, want %q", slot, got, w)
		}
	}
}

func TestSummaryStringKPIs(t *testing.T) {
	api := newStubAPI()
	api.set(PathResourcesSummary, `{"kpi_success":"98%","kpi_mttr":null,"items":[{"product":"VM","azure_total":1,"created_by_terraform":1}]}`)

	f, kpis, canvas, region := newSummary(api, nil)
	f.Fetch(context.Background())

	if got := kpis.Value(SlotSuccess); got != "98%" {
		t.Fatalf("kpi-success = %q, want 98%%", got)
	}
	if got := kpis.Value(SlotMTTR); got != Placeholder {
		t.Fatalf("kpi-mttr = %q, want placeholder", got)
	}
	if canvas.Current() == nil || region.State().ErrorVisible {
		t.Fatalf("string kpi broke the chart")
	}
}

func TestSummaryFailure(t *testing.T) {
	api := newStubAPI()
	api.fail(PathResourcesSummary, errUpstream)

	f, kpis, canvas, region := newSummary(api, nil)
	f.Fetch(context.Background())

	if !region.State().ErrorVisible {
		t.Fatalf("chartError hidden after failure")
	}
	if canvas.Current() != nil {
		t.Fatalf("chart rendered after failure")
	}
	if got := kpis.Value(SlotSuccess); got != Placeholder {
		t.Fatalf("kpi-success = %q, want placeholder", got)
	}
}

func TestSummaryRerenderDestroysPrevious(t *testing.T) {
	api := newStubAPI()
	api.set(PathResourcesSummary, `{"items":[{"product":"VM","azure_total":1,"created_by_terraform":1}]}`)
	sink := &recSink{}

	f, _, canvas, _ := newSummary(api, sink)
	f.Fetch(context.Background())
	first := canvas.Current()
	f.Fetch(context.Background())

	if !first.Destroyed() {
		t.Fatalf("previous chart still alive")
	}
	if canvas.DestroyedCount() != 1 {
		t.Fatalf("DestroyedCount() = %d, want 1", canvas.DestroyedCount())
	}
	if canvas.Current() == first {
		t.Fatalf("Current() not replaced")
	}

	var destroyIdx, chartIdx []int
	for i, typ := range sink.types() {
		switch typ {
		case UpdateChartDestroy:
			destroyIdx = append(destroyIdx, i)
		case UpdateChart:
			chartIdx = append(chartIdx, i)
		}
	}
	if len(destroyIdx) != 1 || len(chartIdx) != 2 || destroyIdx[0] > chartIdx[1] {
		t.Fatalf("destroy must precede the second chart: %v", sink.types())
	}
}

func TestFeedStates(t *testing.T) {
	api := newStubAPI()
	region := NewRegion("feed", feedBodyID, feedEmptyID, feedErrorID, nil)
	f := NewFeedFetcher(api, region, nil, nil, nil)

	api.set(PathSREActions, `[]`)
	f.Fetch(context.Background())
	st := region.State()
	if !st.EmptyVisible || st.ErrorVisible {
		t.Fatalf("empty response: empty=%v error=%v, want true/false", st.EmptyVisible, st.ErrorVisible)
	}

	api.set(PathSREActions, `[{"ts":"t","pipeline_name":"p"}]`)
	f.Fetch(context.Background())
	st = region.State()
	if st.EmptyVisible || st.ErrorVisible || !strings.Contains(st.Body, "<tr>") {
		t.Fatalf("rows response: %+v", st)
	}

	api.fail(PathSREActions, errUpstream)
	f.Fetch(context.Background())
	st = region.State()
	if st.EmptyVisible || !st.ErrorVisible {
		t.Fatalf("failed response: empty=%v error=%v, want false/true", st.EmptyVisible, st.ErrorVisible)
	}
	if st.Body != "" {
		t.Fatalf("body after failure = %q, want empty", st.Body)
	}
}

func TestFeedTruncatesWhy(t *testing.T) {
	why := strings.Repeat("a", 120) + strings.Repeat("b", 80)
	api := newStubAPI()
	api.set(PathSREActions, `[{"why":"`+why+`"}]`)
	region := NewRegion("feed", feedBodyID, feedEmptyID, feedErrorID, nil)
	NewFeedFetcher(api, region, nil, nil, nil).Fetch(context.Background())

	body := region.State().Body
	want := `title="` + strings.Repeat("a", 120) + `">` + strings.Repeat("a", 120) + `</td>`
	if !strings.Contains(body, want) {
		t.Fatalf("why cell not truncated to 120 chars: %s", body)
	}
	if strings.Contains(body, "ab") || strings.Contains(body, strings.Repeat("a", 121)) {
		t.Fatalf("truncated tail leaked into body")
	}
}

func TestFeedStatusLink(t *testing.T) {
	api := newStubAPI()
	api.set(PathSREActions, `[{"run_id":"r1","instance_id":"a b/c"},{"run_id":"r2"}]`)
	region := NewRegion("feed", feedBodyID, feedEmptyID, feedErrorID, nil)

	var tracked []string
	f := NewFeedFetcher(api, region, trackerFunc(func(id string) { tracked = append(tracked, id) }), nil, nil)
	f.Fetch(context.Background())

	body := region.State().Body
	if !strings.Contains(body, `<a href="/status/a%20b%2Fc" target="_blank"`) {
		t.Fatalf("status link missing or not encoded: %s", body)
	}
	if strings.Count(body, ">status</a>") != 1 {
		t.Fatalf("status links = %d, want 1", strings.Count(body, ">status</a>"))
	}
	if len(tracked) != 1 || tracked[0] != "a b/c" {
		t.Fatalf("tracked = %v, want [a b/c]", tracked)
	}
}

func TestFeedFilterQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   string
	}{
		{name: "empty", filter: "", want: PathSREActions},
		{name: "blank", filter: "   ", want: PathSREActions},
		{name: "trimmed", filter: "  etl daily ", want: PathSREActions + "?pipeline=etl+daily"},
		{name: "encoded", filter: "a&b", want: PathSREActions + "?pipeline=a%26b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newStubAPI()
			f := NewFeedFetcher(api, NewRegion("feed", feedBodyID, feedEmptyID, feedErrorID, nil), nil, nil, nil)
			f.SetFilter(tt.filter)
			f.Fetch(context.Background())

			h := api.history()
			if len(h) != 1 || h[0] != tt.want {
				t.Fatalf("requests = %v, want [%s]", h, tt.want)
			}
		})
	}
}

func TestFeedEscapesFields(t *testing.T) {
	api := newStubAPI()
	api.set(PathSREActions, `[{"pipeline_name":"<script>alert('x')</script>","status":"\"ok\""}]`)
	region := NewRegion("feed", feedBodyID, feedEmptyID, feedErrorID, nil)
	NewFeedFetcher(api, region, nil, nil, nil).Fetch(context.Background())

	body := region.State().Body
	if strings.Contains(body, "<script>") {
		t.Fatalf("unescaped markup in body: %s", body)
	}
	if !strings.Contains(body, "&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;") {
		t.Fatalf("escaped pipeline name missing: %s", body)
	}
	if !strings.Contains(body, "&quot;ok&quot;") {
		t.Fatalf("escaped status missing: %s", body)
	}
}

func TestDecisionsKeepsStaleRowsOnFailure(t *testing.T) {
	api := newStubAPI()
	region := NewRegion("decisions", decisionsBodyID, decisionsEmptyID, "", nil)
	f := NewDecisionsFetcher(api, region, nil, nil)

	api.set(PathSREActions, `[{"ts":"t1","pipeline_name":"p1","category":"Transient","action":"retry"}]`)
	f.Fetch(context.Background())
	before := region.State()
	if !strings.Contains(before.Body, "p1") {
		t.Fatalf("rows not rendered: %q", before.Body)
	}

	api.fail(PathSREActions, errUpstream)
	f.Fetch(context.Background())
	after := region.State()
	if after != before {
		t.Fatalf("state changed on failure: %+v -> %+v", before, after)
	}

	h := api.history()
	if h[0] != PathSREActions+"?top=5" {
		t.Fatalf("request = %q, want top=5", h[0])
	}
}

func TestDecisionsEmpty(t *testing.T) {
	api := newStubAPI()
	region := NewRegion("decisions", decisionsBodyID, decisionsEmptyID, "", nil)
	f := NewDecisionsFetcher(api, region, nil, nil)

	api.set(PathSREActions, `[{"ts":"t1"}]`)
	f.Fetch(context.Background())
	api.set(PathSREActions, `[]`)
	f.Fetch(context.Background())

	st := region.State()
	if !st.EmptyVisible || st.Body != "" {
		t.Fatalf("empty response: %+v", st)
	}
}

func TestLogsFormatting(t *testing.T) {
	api := newStubAPI()
	api.set(PathLogsActions, `{"items":[{"createdAt":"c1","endpoint":"/chat","method":"POST","statusCode":200,"durationMs":12.3456},{"createdAt":"c2"}]}`)
	region := NewRegion("logs", logsBodyID, logsEmptyID, logsErrorID, nil)
	NewLogsFetcher(api, region, nil, nil).Fetch(context.Background())

	body := region.State().Body
	if !strings.Contains(body, ">12.35</td>") {
		t.Fatalf("duration not formatted: %s", body)
	}
	if strings.Contains(body, "12.3456") {
		t.Fatalf("raw duration leaked: %s", body)
	}
	if !strings.Contains(body, ">200</td>") {
		t.Fatalf("status code missing: %s", body)
	}
	if strings.Count(body, "<tr>") != 2 {
		t.Fatalf("rows = %d, want 2", strings.Count(body, "<tr>"))
	}
}

func TestLogsArrayShapeAndStates(t *testing.T) {
	api := newStubAPI()
	region := NewRegion("logs", logsBodyID, logsEmptyID, logsErrorID, nil)
	f := NewLogsFetcher(api, region, nil, nil)

	api.set(PathLogsActions, `[{"endpoint":"/a"}]`)
	f.Fetch(context.Background())
	if !strings.Contains(region.State().Body, "/a") {
		t.Fatalf("bare array not rendered")
	}

	api.set(PathLogsActions, `{"items":[]}`)
	f.Fetch(context.Background())
	if st := region.State(); !st.EmptyVisible || st.ErrorVisible {
		t.Fatalf("empty items: %+v", st)
	}

	api.fail(PathLogsActions, errUpstream)
	f.Fetch(context.Background())
	if st := region.State(); st.EmptyVisible || !st.ErrorVisible || st.Body != "" {
		t.Fatalf("failure: %+v", st)
	}
}

func TestDecodeErrorIsFailure(t *testing.T) {
	api := newStubAPI()
	api.set(PathLogsActions, `"not a list"`)
	region := NewRegion("logs", logsBodyID, logsEmptyID, logsErrorID, nil)
	NewLogsFetcher(api, region, nil, nil).Fetch(context.Background())

	if !region.State().ErrorVisible {
		t.Fatalf("malformed JSON must show the error state")
	}
}
