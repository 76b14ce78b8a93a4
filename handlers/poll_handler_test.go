package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"polly-backend/models"
	"polly-backend/service"
	"polly-backend/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePoll(t *testing.T) {
	router, db := SetupTestEnvironment(t)

	w := performRequest(router, "POST", "/api/polls", "alice-token", gin.H{
		"question": "Unit Test Poll?",
		"options":  []string{"Yes", "  ", "No"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.PollID)

	var poll models.Poll
	require.NoError(t, db.First(&poll, "id = ?", resp.PollID).Error)
	assert.Equal(t, "alice", poll.UserID)
	assert.ElementsMatch(t, []string{"Yes", "No"}, testutil.OptionTexts(t, db, resp.PollID))
}

func TestCreatePoll_RedirectsAnonymous(t *testing.T) {
	router, db := SetupTestEnvironment(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "Valid poll", body: gin.H{"question": "Anonymous?", "options": []string{"A", "B"}}},
		{name: "Blank question", body: gin.H{"question": ""}},
		{name: "Missing question", body: gin.H{"options": []string{"A"}}},
		{name: "Malformed body", body: "not a poll"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(router, "POST", "/api/polls", "", tc.body)
			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, "/login", w.Header().Get("Location"))
		})
	}

	var count int64
	db.Model(&models.Poll{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreatePoll_InvalidInput(t *testing.T) {
	router, _ := SetupTestEnvironment(t)

	tests := []struct {
		name        string
		body        gin.H
		expectedErr string
	}{
		{
			name:        "Missing question",
			body:        gin.H{"options": []string{"A", "B"}},
			expectedErr: "Invalid request.",
		},
		{
			name:        "Malformed body",
			body:        gin.H{"question": 42},
			expectedErr: "Invalid request.",
		},
		{
			name:        "Blank question",
			body:        gin.H{"question": "   ", "options": []string{"A"}},
			expectedErr: "Question is required.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(router, "POST", "/api/polls", "alice-token", tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.expectedErr, resp.Error)
		})
	}
}

func TestGetPolls(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	mine := testutil.CreatePoll(t, db, "alice", "Poll 1", "1A", "1B")
	testutil.CreatePoll(t, db, "bob", "Poll 2", "2A", "2B")

	w := performRequest(router, "GET", "/api/polls", "alice-token", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var polls []service.PollView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &polls))
	require.Len(t, polls, 2)
	for _, p := range polls {
		assert.Equal(t, p.ID == mine.ID, p.IsOwner)
		assert.Len(t, p.Options, 2)
	}

	w = performRequest(router, "GET", "/api/polls", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &polls))
	for _, p := range polls {
		assert.False(t, p.IsOwner)
	}
}

func TestGetPolls_Empty(t *testing.T) {
	router, _ := SetupTestEnvironment(t)

	w := performRequest(router, "GET", "/api/polls", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestGetPoll(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	poll := testutil.CreatePoll(t, db, "bob", "Specific Poll", "Opt A", "Opt B")

	w := performRequest(router, "GET", "/api/polls/"+poll.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched models.Poll
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, poll.ID, fetched.ID)
	assert.Equal(t, "Specific Poll", fetched.Question)
	assert.Len(t, fetched.Options, 2)
}

func TestGetPoll_NotFound(t *testing.T) {
	router, _ := SetupTestEnvironment(t)

	w := performRequest(router, "GET", "/api/polls/does-not-exist", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Poll not found.", decodeError(t, w).Error)
}

func TestUpdatePoll(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	poll := testutil.CreatePoll(t, db, "alice", "Original?", "keep", "drop")

	w := performRequest(router, "PUT", "/api/polls/"+poll.ID, "alice-token", gin.H{
		"question": "Updated?",
		"options": []gin.H{
			{"id": poll.Options[0].ID, "text": "kept"},
			{"id": "_new_1700000000", "text": "placeholder id"},
			{"text": "no id"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	var stored models.Poll
	require.NoError(t, db.First(&stored, "id = ?", poll.ID).Error)
	assert.Equal(t, "Updated?", stored.Question)
	assert.ElementsMatch(t, []string{"kept", "placeholder id", "no id"}, testutil.OptionTexts(t, db, poll.ID))
}

func TestUpdatePoll_DropsBlankOptions(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	poll := testutil.CreatePoll(t, db, "alice", "Q?", "keep", "cleared")

	w := performRequest(router, "PUT", "/api/polls/"+poll.ID, "alice-token", gin.H{
		"question": "Q?",
		"options": []gin.H{
			{"id": poll.Options[0].ID, "text": "keep"},
			{"id": poll.Options[1].ID, "text": "  "},
			{"id": "_new_1", "text": "   "},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"keep"}, testutil.OptionTexts(t, db, poll.ID))
}

func TestUpdatePoll_Errors(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	poll := testutil.CreatePoll(t, db, "alice", "Q?", "a")
	body := gin.H{"question": "Changed?", "options": []gin.H{}}

	tests := []struct {
		name    string
		token   string
		code    int
		message string
	}{
		{"anonymous", "", http.StatusUnauthorized, "You must be logged in to update a poll."},
		{"not owner", "bob-token", http.StatusForbidden, "You are not authorized to edit this poll."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(router, "PUT", "/api/polls/"+poll.ID, tc.token, body)

			assert.Equal(t, tc.code, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.message, resp.Error)
		})
	}

	assert.Equal(t, []string{"a"}, testutil.OptionTexts(t, db, poll.ID))
}

func TestDeletePoll(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	poll := testutil.CreatePoll(t, db, "alice", "To be deleted", "a", "b")

	w := performRequest(router, "DELETE", "/api/polls/"+poll.ID, "bob-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You are not authorized to delete this poll.", decodeError(t, w).Error)

	w = performRequest(router, "DELETE", "/api/polls/"+poll.ID, "alice-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, "GET", "/api/polls/"+poll.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, "DELETE", "/api/polls/"+poll.ID, "alice-token", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to delete poll.", decodeError(t, w).Error)
}

func TestDeletePoll_Anonymous(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	poll := testutil.CreatePoll(t, db, "alice", "Q?", "a")

	w := performRequest(router, "DELETE", "/api/polls/"+poll.ID, "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "You must be logged in to delete a poll.", decodeError(t, w).Error)
}

func TestToOptionInputs(t *testing.T) {
	inputs := toOptionInputs([]OptionPayload{
		{ID: "", Text: "a"},
		{ID: "_new_42", Text: "b"},
		{ID: "3f2c", Text: "c"},
	})

	assert.Equal(t, []service.OptionInput{
		service.NewOption{Text: "a"},
		service.NewOption{Text: "b"},
		service.ExistingOption{ID: "3f2c", Text: "c"},
	}, inputs)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, statusFor(service.ErrUpdateLogin))
	assert.Equal(t, http.StatusForbidden, statusFor(service.ErrUpdateNotOwner))
	assert.Equal(t, http.StatusNotFound, statusFor(service.ErrPollNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(service.ErrRemoveOptions))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
