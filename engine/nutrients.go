package engine

import "math"

// Nutrients is a snapshot of the tracked nutritional metrics.
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Sodium   float64 `json:"sodium"`
	Sugar    float64 `json:"sugar"`
}

func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
		Sodium:   n.Sodium + o.Sodium,
		Sugar:    n.Sugar + o.Sugar,
	}
}

// Div divides every metric by d. A non-positive d yields zero.
func (n Nutrients) Div(d float64) Nutrients {
	if d <= 0 {
		return Nutrients{}
	}
	return Nutrients{
		Calories: n.Calories / d,
		Protein:  n.Protein / d,
		Carbs:    n.Carbs / d,
		Fat:      n.Fat / d,
		Sodium:   n.Sodium / d,
		Sugar:    n.Sugar / d,
	}
}

func (n Nutrients) Rounded() Nutrients {
	return Nutrients{
		Calories: round2(n.Calories),
		Protein:  round2(n.Protein),
		Carbs:    round2(n.Carbs),
		Fat:      round2(n.Fat),
		Sodium:   round2(n.Sodium),
		Sugar:    round2(n.Sugar),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
