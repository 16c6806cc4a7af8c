package core

import "fmt"

const (
	DefaultEngineType  = "nanogpt"
	DefaultEngineModel = "small-8"
	DefaultTemperature = 0.01
)

// EngineSelection is the user-chosen remote engine configuration
type EngineSelection struct {
	Type        string  `json:"type" validate:"required,max=64"`
	Model       string  `json:"model,omitempty" validate:"omitempty,max=128"`
	Temperature float64 `json:"temperature" validate:"min=0,max=1"`
}

// DefaultEngine returns the selection used when a session is created without one
func DefaultEngine() EngineSelection {
	return EngineSelection{
		Type:        DefaultEngineType,
		Model:       DefaultEngineModel,
		Temperature: DefaultTemperature,
	}
}

// DisplayName is the attribution used in commentary, e.g. "nanogpt (small-8)"
func (e EngineSelection) DisplayName() string {
	if e.Model == "" {
		return e.Type
	}
	return fmt.Sprintf("%s (%s)", e.Type, e.Model)
}
