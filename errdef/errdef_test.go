package errdef

import (
	"errors"
	"testing"

	"github.com/KOMKZ/go-yogan-confres/errcode"
	"github.com/stretchr/testify/assert"
)

func TestKinds_Registered(t *testing.T) {
	codes := errcode.GetAllRegisteredCodes()

	for _, kind := range []*errcode.LayeredError{
		ErrSourceDiscovery, ErrParse, ErrValidation, ErrConstruction, ErrResolution, ErrInvalidMember,
	} {
		assert.Equal(t, Module+":"+kind.MsgKey(), codes[kind.Code()])
	}
}

func TestKinds_Distinct(t *testing.T) {
	err := ErrResolution.Wrap(ErrParse.WithData("source", "file:a.yaml").Wrap(errors.New("eof")))

	assert.True(t, errors.Is(err, ErrParse))
	assert.True(t, errors.Is(err, ErrResolution))
	assert.False(t, errors.Is(err, ErrValidation))
}
