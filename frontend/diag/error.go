package diag

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/nacre-lang/nacre/frontend/ir"
)

// enableDebugErrorPrinting makes errors include their stacktrace when printed
const enableDebugErrorPrinting bool = true
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	UnresolvedLocation
	ForeignConstraint
)

// Error is a coded, source-positioned diagnostic. The constraint layer
// itself only raises these at its collaborator boundaries; contract
// violations inside the layer panic instead.
type Error interface {
	error
	Code() ErrCode
	ir.Positioner

	withStack([]byte) Error
	getStack() []byte
}

func FormatWithCode(e Error) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			stack = strings.Split(stack, "\n")[6]
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E Error](err E) Error {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From error
	ir.Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type NewUnresolvedLocation struct {
	ir.Positioner
	Cause error
	stack []byte
}

func (e NewUnresolvedLocation) Error() string {
	return fmt.Sprintf("cannot resolve source location: %v", e.Cause)
}
func (e NewUnresolvedLocation) Code() ErrCode    { return UnresolvedLocation }
func (e NewUnresolvedLocation) getStack() []byte { return e.stack }
func (e NewUnresolvedLocation) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type NewForeignConstraint struct {
	ir.Positioner
	stack []byte
}

func (e NewForeignConstraint) Error() string {
	return "constraint belongs to a different solving session"
}
func (e NewForeignConstraint) Code() ErrCode    { return ForeignConstraint }
func (e NewForeignConstraint) getStack() []byte { return e.stack }
func (e NewForeignConstraint) withStack(stack []byte) Error {
	e.stack = stack
	return e
}
