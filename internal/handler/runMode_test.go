package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lcmc/crm-manager/internal/errdef"
	"github.com/lcmc/crm-manager/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRunMode(t *testing.T) {
	tests := map[string]struct {
		url  string
		want model.RunMode
	}{
		"Default": {"/", model.Live},
		"Live":    {"/?mode=live", model.Live},
		"Test":    {"/?mode=TEST", model.Test},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
			request, err := http.NewRequest(http.MethodGet, test.url, nil)
			require.NoError(t, err)
			ctx.Request = request

			mode, err := GetRunMode(ctx)

			require.NoError(t, err)
			assert.Equal(t, test.want, mode)
		})
	}

	t.Run("FailGivenUnknownMode", func(t *testing.T) {
		ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
		request, err := http.NewRequest(http.MethodGet, "/?mode=dry", nil)
		require.NoError(t, err)
		ctx.Request = request

		_, err = GetRunMode(ctx)

		assert.True(t, errdef.IsBadRequest(err))
	})
}
