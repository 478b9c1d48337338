package valueobject

// Component is one of the money buckets a schedule line or repayment is
// split into.
type Component int

const (
	ComponentPenalty Component = iota + 1
	ComponentFee
	ComponentInterest
	ComponentSubscription
	ComponentPrincipal
)

var componentNames = map[Component]string{
	ComponentPenalty:      "penalty",
	ComponentFee:          "fee",
	ComponentInterest:     "interest",
	ComponentSubscription: "subscription",
	ComponentPrincipal:    "principal",
}

func (c Component) String() string {
	if name, ok := componentNames[c]; ok {
		return name
	}
	return "unknown"
}

// BreakdownOrder is the priority in which money is applied to past-due
// amounts. A fresh slice is returned on every call.
func BreakdownOrder() []Component {
	return []Component{
		ComponentPenalty,
		ComponentFee,
		ComponentInterest,
		ComponentSubscription,
		ComponentPrincipal,
	}
}

// PrepaymentOrder is BreakdownOrder without interest: interest that has not
// accrued yet is never paid in advance.
func PrepaymentOrder() []Component {
	order := BreakdownOrder()
	out := order[:0]
	for _, c := range order {
		if c != ComponentInterest {
			out = append(out, c)
		}
	}
	return out
}
