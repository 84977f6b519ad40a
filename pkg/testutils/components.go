package testutils

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Velocity struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Health struct {
	Value int `json:"value"`
}

type Sprite struct {
	Atlas string `json:"atlas"`
	Frame int    `json:"frame"`
}

// PlayerTag is never registered for serialization in the tests.
type PlayerTag struct {
	Nickname string `json:"nickname"`
}

type Gravity struct {
	Accel float64 `json:"accel"`
}
