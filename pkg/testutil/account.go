package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aura0x/aura-server/pkg/aura/common"
)

func NewRandomAccount(t *testing.T) *common.Account {
	account, err := common.NewRandomAccount()
	require.NoError(t, err)

	return account
}
