package dashboard

import (
	"net/url"
	"strconv"
	"strings"
	"text/template"

	"github.com/xela07ax/saude-console/internal/domain"
)

// WhyMaxChars — сколько символов why показывается в ленте.
const WhyMaxChars = 120

// Шаблоны строк. text/template ничего не экранирует сам:
// каждое серверное значение проходит через esc ровно один раз.
var rowFuncs = template.FuncMap{
	"esc":        Escape,
	"truncate":   truncate,
	"statusURL":  statusURL,
	"statusCode": formatStatusCode,
	"duration":   formatDuration,
}

var rowTemplates = template.Must(template.New("rows").Funcs(rowFuncs).Parse(`
{{- define "decisions" -}}
{{range .}}<tr>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-900">{{esc .TS}}</td>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{esc .PipelineName}}</td>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{esc .Category}}</td>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{esc .Action}}</td>
</tr>
{{end}}
{{- end -}}

{{- define "feed" -}}
{{range .}}{{$why := esc (truncate .Why)}}<tr>
  <td class="px-6 py-4 whitespace-nowrap text-sm font-medium text-gray-900">{{esc .TS}}</td>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{esc .PipelineName}}</td>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{esc .Category}}</td>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{esc .Action}}</td>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{esc .Status}}</td>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500" title="{{$why}}">{{$why}}</td>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{esc .RunID}}</td>
  <td class="px-6 py-4 whitespace-nowrap text-sm">{{with statusURL .InstanceID}}<a href="{{esc .}}" target="_blank" class="text-blue-600 hover:text-blue-800">status</a>{{end}}</td>
</tr>
{{end}}
{{- end -}}

{{- define "logs" -}}
{{range .}}<tr>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-900">{{esc .CreatedAt}}</td>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{esc .Endpoint}}</td>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{esc .Method}}</td>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{esc (statusCode .StatusCode)}}</td>
  <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{esc (duration .DurationMs)}}</td>
</tr>
{{end}}
{{- end -}}

{{- define "chat" -}}
{{if eq .Role "user"}}<div class="flex justify-end"><div class="user-message">{{esc .Text}}</div></div>
{{- else if .IsError}}<div class="flex"><div class="agent-message text-red-500">{{esc .Text}}</div></div>
{{- else}}<div class="flex"><div class="agent-message">{{esc .Text}}</div></div>
{{- end}}
{{- end -}}
`))

func RenderDecisionRows(items []domain.DecisionRecord) (string, error) {
	return render("decisions", items)
}

func RenderFeedRows(items []domain.PipelineEvent) (string, error) {
	return render("feed", items)
}

func RenderLogRows(items []domain.ApiLogRecord) (string, error) {
	return render("logs", items)
}

func RenderChatEntry(msg domain.ChatMessage) (string, error) {
	return render("chat", msg)
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := rowTemplates.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// truncate режет по символам, а не по байтам.
func truncate(s string) string {
	r := []rune(s)
	if len(r) <= WhyMaxChars {
		return s
	}
	return string(r[:WhyMaxChars])
}

// statusURL — ссылка на durable-статус; "" если инстанса нет.
func statusURL(instanceID string) string {
	if instanceID == "" {
		return ""
	}
	return "/status/" + strings.ReplaceAll(url.QueryEscape(instanceID), "+", "%20")
}

func formatStatusCode(code *int) string {
	if code == nil {
		return ""
	}
	return strconv.Itoa(*code)
}

func formatDuration(ms *float64) string {
	if ms == nil {
		return ""
	}
	return strconv.FormatFloat(*ms, 'f', 2, 64)
}
