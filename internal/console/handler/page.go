package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/xela07ax/saude-console/internal/dashboard"
	"go.uber.org/zap"
)

// navItem — пункт навигации оболочки.
type navItem struct {
	Key   string
	Label string
	Class string
}

type shellData struct {
	Nav         []navItem
	Active      string
	Placeholder string
	Greeting    string
}

var navLabels = map[string]string{
	dashboard.PaneDashboard:    "DASHBOARD",
	dashboard.PanePipelines:    "PIPELINES",
	dashboard.PaneChat:         "CHATBOT",
	dashboard.PaneArchitecture: "ARCHITECTURE",
	dashboard.PaneLogs:         "LOGS",
}

const navBaseClass = "text-gray-700 hover:text-blue-600 border-b-2 "

// ShellHandler отдает страницу. Данных в ней нет: все приходит по /ws.
type ShellHandler struct {
	tmpl   *template.Template
	logger *zap.Logger
}

func NewShellHandler(logger *zap.Logger) *ShellHandler {
	return &ShellHandler{
		tmpl:   template.Must(template.New("shell").Funcs(template.FuncMap{"pane": paneClass}).Parse(shellTemplate)),
		logger: logger.Named("shell"),
	}
}

func (h *ShellHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// фрагмент до сервера не доходит, ?tab= дает ту же начальную вкладку без мигания
	router := dashboard.NewTabRouter(r.URL.Query().Get("tab"))

	data := shellData{
		Active:      router.Active(),
		Placeholder: dashboard.Placeholder,
		Greeting:    dashboard.ChatGreeting,
	}
	for _, key := range dashboard.Panes {
		data.Nav = append(data.Nav, navItem{
			Key:   key,
			Label: navLabels[key],
			Class: navBaseClass + router.NavClass(key),
		})
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		h.logger.Error("render shell", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func paneClass(active, key string) string {
	if active == key {
		return "tab-pane active"
	}
	return "tab-pane"
}
