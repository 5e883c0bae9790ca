package enums

// PaymentMethod is the buyer-selected settlement channel. Settlement itself
// happens out of band; the method only drives the is_paid rule at checkout.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "COD"
	PaymentMethodOnline PaymentMethod = "ONLINE"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodOnline
}

func (m PaymentMethod) String() string {
	return string(m)
}
