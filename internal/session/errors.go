package session

import "errors"

// Kind groups error codes by how a transport should surface them.
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindInvalidState Kind = "INVALID_STATE"
	KindConflict     Kind = "CONFLICT"
	KindValidation   Kind = "VALIDATION"
)

type Code string

const (
	CodeSessionNotFound       Code = "SESSION_NOT_FOUND"
	CodeAgentNotInSession     Code = "AGENT_NOT_IN_SESSION"
	CodeAgendaNotFound        Code = "AGENDA_NOT_FOUND"
	CodeSessionAlreadyStarted Code = "SESSION_ALREADY_STARTED"
	CodeNotVotingPhase        Code = "NOT_VOTING_PHASE"
	CodeNotAgendaPhase        Code = "NOT_AGENDA_PHASE"
	CodeRoleTaken             Code = "ROLE_TAKEN"
	CodeAgentAlreadyJoined    Code = "AGENT_ALREADY_JOINED"
	CodeInvalidOption         Code = "INVALID_OPTION"
	CodeAgendaResolved        Code = "AGENDA_RESOLVED"
	CodeInvalidRole           Code = "INVALID_ROLE"
	CodeInvalidPhase          Code = "INVALID_PHASE"
	CodeInvalidRequest        Code = "INVALID_REQUEST"
	CodePhaseChanged          Code = "PHASE_CHANGED"
)

// Error is a business-rule violation. Two errors match under errors.Is when
// their codes are equal, so callers compare against the sentinels below.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrSessionNotFound       = &Error{Kind: KindNotFound, Code: CodeSessionNotFound, Message: "session not found"}
	ErrAgentNotInSession     = &Error{Kind: KindNotFound, Code: CodeAgentNotInSession, Message: "agent not in session"}
	ErrAgendaNotFound        = &Error{Kind: KindNotFound, Code: CodeAgendaNotFound, Message: "agenda item not found"}
	ErrSessionAlreadyStarted = &Error{Kind: KindInvalidState, Code: CodeSessionAlreadyStarted, Message: "session already started"}
	ErrNotVotingPhase        = &Error{Kind: KindInvalidState, Code: CodeNotVotingPhase, Message: "not in voting phase"}
	ErrNotAgendaPhase        = &Error{Kind: KindInvalidState, Code: CodeNotAgendaPhase, Message: "not in agenda phase"}
	ErrRoleTaken             = &Error{Kind: KindConflict, Code: CodeRoleTaken, Message: "role already taken"}
	ErrAgentAlreadyJoined    = &Error{Kind: KindConflict, Code: CodeAgentAlreadyJoined, Message: "agent already in session"}
	ErrInvalidOption         = &Error{Kind: KindConflict, Code: CodeInvalidOption, Message: "invalid option"}
	ErrAgendaResolved        = &Error{Kind: KindConflict, Code: CodeAgendaResolved, Message: "agenda item already resolved"}
	ErrInvalidRole           = &Error{Kind: KindValidation, Code: CodeInvalidRole, Message: "invalid role"}
	ErrInvalidPhase          = &Error{Kind: KindValidation, Code: CodeInvalidPhase, Message: "invalid phase"}
	ErrInvalidRequest        = &Error{Kind: KindValidation, Code: CodeInvalidRequest, Message: "invalid request"}
	ErrPhaseChanged          = &Error{Kind: KindInvalidState, Code: CodePhaseChanged, Message: "phase changed"}
)

func newError(base *Error, message string) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: message}
}

// KindOf reports the kind of a session error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
