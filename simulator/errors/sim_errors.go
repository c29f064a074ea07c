package errors

import "fmt"

type UnknownNodeError struct {
	Name string
}

func (err UnknownNodeError) Error() string {
	return fmt.Sprintf("no such node %s", err.Name)
}

type InvalidScheduleError struct {
	Node   string
	Period int
}

func (err InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule on node %s: period %d must be positive", err.Node, err.Period)
}

type SessionStoppedError struct {
	Op string
}

func (err SessionStoppedError) Error() string {
	if len(err.Op) == 0 {
		err.Op = "UNKOWN"
	}

	return fmt.Sprintf("session has been stopped; unable to perform %s", err.Op)
}
