package query

import (
	"errors"
	"fmt"
)

// Validation limits for where-clause input
const (
	// MaxWhereLength is the maximum allowed where-clause length (64KB)
	MaxWhereLength = 64 * 1024

	// MaxExpressionDepth is the maximum nesting depth for expressions
	MaxExpressionDepth = 100

	// MaxColumnNameLength is the maximum length for a column reference
	MaxColumnNameLength = 256
)

var (
	// ErrEmptyExpression is returned for blank where-clauses and empty operands
	ErrEmptyExpression = errors.New("empty expression")

	// ErrUnbalancedParens is returned when parentheses do not pair up
	ErrUnbalancedParens = errors.New("unbalanced parentheses")

	// ErrMissingOperand is returned when AND/OR/NOT lacks an operand
	ErrMissingOperand = errors.New("missing operand")

	// ErrInvalidCondition is returned when text does not match column/operator/value
	ErrInvalidCondition = errors.New("invalid condition")

	// ErrUnknownColumn is returned when a column reference is not in the schema
	ErrUnknownColumn = errors.New("unknown column")

	// ErrWhereTooLong is returned when input exceeds MaxWhereLength
	ErrWhereTooLong = errors.New("where clause too long")

	// ErrExpressionTooDeep is returned when expression nesting exceeds limit
	ErrExpressionTooDeep = errors.New("expression nesting too deep")

	// ErrColumnNameTooLong is returned when column name is too long
	ErrColumnNameTooLong = errors.New("column name too long")

	// ErrJoinColumnNotFound is returned when a join column is absent from its table
	ErrJoinColumnNotFound = errors.New("join column not found")

	// ErrProjectionColumnNotFound is returned when a projected column resolves to neither table
	ErrProjectionColumnNotFound = errors.New("projection column not found")
)

// ValidateWhere performs size validation on where-clause input
func ValidateWhere(where string) error {
	if len(where) > MaxWhereLength {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrWhereTooLong, len(where), MaxWhereLength)
	}
	return nil
}

// ValidateColumnName validates column name length
func ValidateColumnName(name string) error {
	if len(name) > MaxColumnNameLength {
		return fmt.Errorf("%w: %d chars (max %d)", ErrColumnNameTooLong, len(name), MaxColumnNameLength)
	}
	return nil
}

// ValidateBalance checks that every ')' closes an earlier '(' and that all
// '(' are closed. Parentheses inside quoted literals are ignored.
func ValidateBalance(s string) error {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unmatched ')' at offset %d", ErrUnbalancedParens, i)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: %d unclosed '('", ErrUnbalancedParens, depth)
	}
	return nil
}

// depthCounter tracks expression nesting depth
type depthCounter struct {
	depth    int
	maxDepth int
}

// newDepthCounter creates a new depth counter
func newDepthCounter() *depthCounter {
	return &depthCounter{depth: 0, maxDepth: MaxExpressionDepth}
}

// Enter increments depth and returns error if limit exceeded
func (c *depthCounter) Enter() error {
	c.depth++
	if c.depth > c.maxDepth {
		return fmt.Errorf("%w: %d (max %d)", ErrExpressionTooDeep, c.depth, c.maxDepth)
	}
	return nil
}

// Exit decrements depth
func (c *depthCounter) Exit() {
	c.depth--
}
