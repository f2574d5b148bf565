package httpapi

import "sync"

// ModalState is the dialog capability handed to the detail session. The real
// dialog element lives in the browser; here only the open flag is tracked so
// responses can tell the page whether to show it.
type ModalState struct {
	mu   sync.Mutex
	open bool
}

func NewModalState() *ModalState { return &ModalState{} }

func (m *ModalState) Open() {
	m.mu.Lock()
	m.open = true
	m.mu.Unlock()
}

func (m *ModalState) Close() {
	m.mu.Lock()
	m.open = false
	m.mu.Unlock()
}

func (m *ModalState) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}
