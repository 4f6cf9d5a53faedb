package errors_test

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ibocheck/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestNew
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"element missing", errors.CodeElementNotFound, "element Po not found"},
		{"unsupported", errors.CodeUnsupportedElement, "Z=36 outside 37..96"},
		{"impossible", errors.CodeImpossibleInput, "nMINAO=120 exceeds nBasis=80"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestNew_StackMentionsCaller(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.CodeInternal, "test")
	require.NotNil(t, ae)
	assert.Contains(t, ae.Stack, "errors_test.go")
}

func TestNewf_FormatsMessage(t *testing.T) {
	t.Parallel()

	ae := errors.Newf(errors.CodeInsufficientData, "need %d p functions, have %d", 5, 3)
	assert.Equal(t, "need 5 p functions, have 3", ae.Message)
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should not matter"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("permission denied")
	wrapped := errors.Wrap(root, errors.CodeBasisParseFailed, "cannot open MINAO")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.CodeBasisParseFailed, wrapped.Code)
	assert.Equal(t, root, wrapped.Cause)
	assert.Equal(t, root, stderrors.Unwrap(wrapped))
	assert.True(t, stderrors.Is(wrapped, root))
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.CodeElementNotFound, "not found")
	outer := errors.Wrap(inner, errors.CodeUnknown, "adding context")

	require.NotNil(t, outer)
	assert.Equal(t, errors.CodeElementNotFound, outer.Code)
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.CodeElementNotFound, "not found")
	outer := errors.Wrap(inner, errors.CodeInsufficientData, "cannot synthesize")

	assert.Equal(t, errors.CodeInsufficientData, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// TestError_Method
// ─────────────────────────────────────────────────────────────────────────────

func TestError_FormatWithoutDetail(t *testing.T) {
	t.Parallel()

	s := errors.New(errors.CodeElementNotFound, "element Rb not found").Error()
	assert.Equal(t, "[BAS_001] element Rb not found", s)
}

func TestError_FormatWithDetail(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.CodeUnknownElement, "unknown symbol").WithDetail("symbol=Xx")
	assert.Equal(t, "[ELM_002] unknown symbol: symbol=Xx", ae.Error())
}

func TestWithDetail_DoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	original := errors.New(errors.CodeNotFound, "missing")
	detailed := original.WithDetail("path=/tmp/x")

	assert.Empty(t, original.Detail)
	assert.Equal(t, "path=/tmp/x", detailed.Detail)
	assert.Equal(t, original.Code, detailed.Code)
}

func TestWithDetail_NilReceiver(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_ThroughForeignWrapping(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.CodeOrbitalInputInvalid, "empty energies")
	outer := fmt.Errorf("loading h2.json: %w", inner)

	assert.True(t, errors.IsCode(outer, errors.CodeOrbitalInputInvalid))
	assert.False(t, errors.IsCode(outer, errors.CodeInternal))
	assert.False(t, errors.IsCode(nil, errors.CodeInternal))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"generic", errors.New(errors.CodeNotFound, "not found"), true},
		{"element", errors.New(errors.CodeElementNotFound, "Rb missing"), true},
		{"wrapped element", fmt.Errorf("ctx: %w", errors.New(errors.CodeElementNotFound, "x")), true},
		{"other code", errors.InvalidParam("bad"), false},
		{"plain", stderrors.New("plain"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, errors.IsNotFound(tc.err))
		})
	}
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("x")))
	assert.Equal(t, errors.CodeInternal, errors.GetCode(errors.New(errors.CodeInternal, "boom")))
	assert.Equal(t, errors.CodeImpossibleInput,
		errors.GetCode(fmt.Errorf("w: %w", errors.New(errors.CodeImpossibleInput, "x"))))
}

func TestAs_FindsAppError(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	err := fmt.Errorf("outer: %w", errors.New(errors.CodeIO, "disk full"))
	require.True(t, errors.As(err, &ae))
	assert.True(t, strings.Contains(ae.Message, "disk"))
}
