package dashboard

import "sync"

// RegionState — снимок DOM-региона виджета.
type RegionState struct {
	Name         string `json:"name"`
	BodyID       string `json:"body_id,omitempty"`
	EmptyID      string `json:"empty_id,omitempty"`
	ErrorID      string `json:"error_id,omitempty"`
	Body         string `json:"body"`
	EmptyVisible bool   `json:"empty_visible"`
	ErrorVisible bool   `json:"error_visible"`
}

// Region принадлежит ровно одному фетчеру. Пустой ID означает,
// что у региона нет соответствующего элемента.
type Region struct {
	mu    sync.Mutex
	state RegionState
	sink  Sink
}

func NewRegion(name, bodyID, emptyID, errorID string, sink Sink) *Region {
	return &Region{
		state: RegionState{Name: name, BodyID: bodyID, EmptyID: emptyID, ErrorID: errorID},
		sink:  orDiscard(sink),
	}
}

// Clear очищает тело, индикаторы не трогает.
func (r *Region) Clear() {
	r.apply(func(s *RegionState) { s.Body = "" })
}

// Rows подменяет тело отрендеренными строками и прячет оба индикатора.
func (r *Region) Rows(body string) {
	r.apply(func(s *RegionState) {
		s.Body = body
		s.EmptyVisible = false
		s.ErrorVisible = false
	})
}

func (r *Region) Empty() {
	r.apply(func(s *RegionState) {
		s.Body = ""
		s.EmptyVisible = true
		s.ErrorVisible = false
	})
}

// Fail показывает ошибку. Тело остается как есть.
func (r *Region) Fail() {
	r.apply(func(s *RegionState) {
		s.EmptyVisible = false
		s.ErrorVisible = true
	})
}

// Ok прячет оба индикатора, тело не трогает.
func (r *Region) Ok() {
	r.apply(func(s *RegionState) {
		s.EmptyVisible = false
		s.ErrorVisible = false
	})
}

func (r *Region) State() RegionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Region) apply(fn func(s *RegionState)) {
	r.mu.Lock()
	fn(&r.state)
	snapshot := r.state
	// публикуем под локом: порядок обновлений региона = порядок изменений
	r.sink.Publish(Update{Type: UpdateRegion, Region: &snapshot})
	r.mu.Unlock()
}
