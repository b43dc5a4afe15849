package draft

import (
	"sync"
	"time"
)

// SuccessTTL is how long a success banner stays visible.
const SuccessTTL = 3 * time.Second

// Notices are the banners shown above the form: a main error, a separate
// PDF error, and a success message that expires on its own.
type Notices struct {
	mu        sync.Mutex
	now       func() time.Time
	err       string
	pdfErr    string
	success   string
	successAt time.Time
}

func NewNotices(now func() time.Time) *Notices {
	if now == nil {
		now = time.Now
	}
	return &Notices{now: now}
}

func (n *Notices) Error() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

func (n *Notices) PDFError() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pdfErr
}

// Success returns the current success message, or "" once SuccessTTL has elapsed.
func (n *Notices) Success() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.success != "" && n.now().Sub(n.successAt) >= SuccessTTL {
		n.success = ""
	}
	return n.success
}

func (n *Notices) DismissError() {
	n.mu.Lock()
	n.err = ""
	n.mu.Unlock()
}

func (n *Notices) DismissPDFError() {
	n.mu.Lock()
	n.pdfErr = ""
	n.mu.Unlock()
}

func (n *Notices) setError(msg string) {
	n.mu.Lock()
	n.err = msg
	n.success = ""
	n.mu.Unlock()
}

func (n *Notices) setPDFError(msg string) {
	n.mu.Lock()
	n.pdfErr = msg
	n.mu.Unlock()
}

func (n *Notices) setSuccess(msg string) {
	n.mu.Lock()
	n.success = msg
	n.successAt = n.now()
	n.err = ""
	n.mu.Unlock()
}

// clear drops the main error and success banners, as any form edit does.
func (n *Notices) clear() {
	n.mu.Lock()
	n.err = ""
	n.success = ""
	n.mu.Unlock()
}
