package transition

import "errors"

var (
	ErrRevertOnDelay     = errors.New("transition: revert policy is not valid for the delay phase")
	ErrImmediateOnActive = errors.New("transition: immediate policy is not valid for the active phase")
	ErrNegativeTiming    = errors.New("transition: delay and duration must be non-negative")
	ErrCurveTooLong      = errors.New("transition: torque curve is longer than the transition duration")
	ErrNegativeROI       = errors.New("transition: roi must be non-negative")
	ErrNoTargets         = errors.New("transition: no targets")
	ErrNilWorld          = errors.New("transition: nil world")
	ErrEmptySequence     = errors.New("transition: sequence has no transitions")
	ErrLinkCount         = errors.New("transition: sequence needs one link between each pair of transitions")
)
