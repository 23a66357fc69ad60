package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kidslab/kidsmove/internal/handlers/testutil"
	"github.com/kidslab/kidsmove/internal/services"
)

func createChild(t *testing.T, env *testutil.Env, token string) services.ChildView {
	t.Helper()

	w := env.Request(http.MethodPost, "/api/children", map[string]any{
		"first_name": "花子",
		"last_name":  "佐藤",
		"birthdate":  "2018-04-02",
		"grade":      "年長",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var child services.ChildView
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &child)
	return child
}

func scores(score int) map[string]int {
	return map[string]int{
		"run": score, "balance_beam": score, "jump": score, "throw": score,
		"catch": score, "dribble": score, "roll": score,
	}
}

func createAssessment(t *testing.T, env *testutil.Env, token, childID, assessedAt string, score int) services.Report {
	t.Helper()

	w := env.Request(http.MethodPost, "/api/assessments", map[string]any{
		"child_id":    childID,
		"assessed_at": assessedAt,
		"fms_scores":  scores(score),
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var report services.Report
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &report)
	return report
}

func requireAPIError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	require.Equal(t, status, w.Code, w.Body.String())
	payload := testutil.DecodeResponse(t, w)
	require.False(t, payload.Success)
	require.NotNil(t, payload.Error)
	require.Equal(t, code, payload.Error.Code)
}
