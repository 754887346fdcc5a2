package dashboard

import (
	"strings"
	"sync"
)

const (
	PaneDashboard    = "dashboard"
	PanePipelines    = "pipelines"
	PaneChat         = "chat"
	PaneArchitecture = "architecture"
	PaneLogs         = "logs"
)

// Panes в порядке навигации.
var Panes = []string{PaneDashboard, PanePipelines, PaneChat, PaneArchitecture, PaneLogs}

const (
	navActiveClass   = "border-blue-600 font-bold"
	navInactiveClass = "border-transparent font-medium"
)

type PaneState struct {
	Key      string `json:"key"`
	Visible  bool   `json:"visible"`
	NavClass string `json:"nav_class"`
}

type TabState struct {
	Active   string      `json:"active"`
	Fragment string      `json:"fragment"`
	Panes    []PaneState `json:"panes"`
}

// TabRouter — какая панель видима. Ровно одна активна всегда.
type TabRouter struct {
	mu       sync.RWMutex
	active   string
	fragment string
}

// NewTabRouter берет начальную панель из фрагмента URL ("#logs" или "logs").
// Пусто или неизвестно — dashboard.
func NewTabRouter(fragment string) *TabRouter {
	key := strings.TrimPrefix(strings.TrimSpace(fragment), "#")
	if !isPane(key) {
		key = PaneDashboard
	}
	return &TabRouter{active: key, fragment: key}
}

// Activate делает панель активной и обновляет фрагмент.
// Неизвестный ключ ничего не меняет.
func (t *TabRouter) Activate(key string) bool {
	if !isPane(key) {
		return false
	}
	t.mu.Lock()
	t.active = key
	t.fragment = key
	t.mu.Unlock()
	return true
}

func (t *TabRouter) Active() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

func (t *TabRouter) Fragment() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fragment
}

func (t *TabRouter) Visible(key string) bool {
	return t.Active() == key
}

// NavClass — классы акцента для пункта навигации.
func (t *TabRouter) NavClass(key string) string {
	if t.Visible(key) {
		return navActiveClass
	}
	return navInactiveClass
}

func (t *TabRouter) State() TabState {
	t.mu.RLock()
	active, fragment := t.active, t.fragment
	t.mu.RUnlock()

	st := TabState{Active: active, Fragment: fragment, Panes: make([]PaneState, 0, len(Panes))}
	for _, key := range Panes {
		ps := PaneState{Key: key, Visible: key == active, NavClass: navInactiveClass}
		if ps.Visible {
			ps.NavClass = navActiveClass
		}
		st.Panes = append(st.Panes, ps)
	}
	return st
}

func isPane(key string) bool {
	for _, p := range Panes {
		if p == key {
			return true
		}
	}
	return false
}
