package draft

// Payment methods as stored on invoices.
const (
	MethodCash   = "ESPECE"
	MethodCheque = "CHEQUE"
	MethodEffet  = "EFFET"
)

// Payment is one of Cash, Cheque or Effet. Switching method replaces the
// value, so the fields of another method cannot linger.
type Payment interface {
	Method() string
	isPayment()
}

type Cash struct{}

// Cheque needs a number and a bank.
type Cheque struct {
	Number    string
	Bank      string
	City      string
	Reference string
}

// Effet is a bill of exchange; city and due date (DD-MM-YYYY) are required.
type Effet struct {
	City      string
	DueDate   string
	Bank      string
	Reference string
}

func (Cash) Method() string   { return MethodCash }
func (Cheque) Method() string { return MethodCheque }
func (Effet) Method() string  { return MethodEffet }

func (Cash) isPayment()   {}
func (Cheque) isPayment() {}
func (Effet) isPayment()  {}

// PaymentFor returns the empty variant of method, nil when unknown.
func PaymentFor(method string) Payment {
	switch method {
	case MethodCash:
		return Cash{}
	case MethodCheque:
		return Cheque{}
	case MethodEffet:
		return Effet{}
	}
	return nil
}
