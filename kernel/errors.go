package kernel

import "errors"

var (
	// ErrServiceTypeMismatch indicates a resolved instance does not implement
	// the interface expected for its capability.
	ErrServiceTypeMismatch = errors.New("service type mismatch")

	// ErrSkillNotFound indicates no skill is registered under the given name.
	ErrSkillNotFound = errors.New("skill not found")

	// ErrFunctionNotFound indicates the skill has no function with the given name.
	ErrFunctionNotFound = errors.New("function not found")

	// ErrInvalidSkill indicates a skill registration was rejected.
	ErrInvalidSkill = errors.New("invalid skill")

	// ErrBuilderSealed indicates a registration was attempted after Build.
	ErrBuilderSealed = errors.New("builder already built")
)
