package application_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/homeworkbot/internal/application"
	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
)

func TestTranslateStatus_RecognizedStatuses(t *testing.T) {
	statuses := []model.ReviewStatus{
		model.ReviewStatusReviewing,
		model.ReviewStatusApproved,
		model.ReviewStatusRejected,
	}

	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			text, err := application.TranslateStatus(model.ReviewItem{Name: "lab1", Status: status})
			require.NoError(t, err)

			verdict, ok := application.Verdict(status)
			require.True(t, ok)
			assert.Contains(t, text, "lab1")
			assert.Contains(t, text, verdict)
		})
	}
}

func TestTranslateStatus_Template(t *testing.T) {
	text, err := application.TranslateStatus(model.ReviewItem{Name: "lab1", Status: model.ReviewStatusApproved})

	require.NoError(t, err)
	assert.Equal(t,
		`Review status changed for "lab1": The reviewer liked everything, you can move on to the next lesson.`,
		text)
}

func TestTranslateStatus_NameIsVerbatim(t *testing.T) {
	name := "Lab \"Sorting\"\npart 2"
	text, err := application.TranslateStatus(model.ReviewItem{Name: name, Status: model.ReviewStatusRejected})

	require.NoError(t, err)
	assert.Equal(t,
		"Review status changed for \"Lab \"Sorting\"\npart 2\": Unfortunately, the reviewer found mistakes in the work.",
		text)
	assert.NotContains(t, text, `\`)
}

func TestTranslateStatus_VerdictsAreDistinct(t *testing.T) {
	reviewing, _ := application.Verdict(model.ReviewStatusReviewing)
	approved, _ := application.Verdict(model.ReviewStatusApproved)
	rejected, _ := application.Verdict(model.ReviewStatusRejected)

	assert.NotEqual(t, reviewing, approved)
	assert.NotEqual(t, approved, rejected)
	assert.NotEqual(t, reviewing, rejected)
}

func TestTranslateStatus_UnknownStatus(t *testing.T) {
	for _, status := range []model.ReviewStatus{"in_progress", "", "APPROVED"} {
		t.Run(string(status), func(t *testing.T) {
			text, err := application.TranslateStatus(model.ReviewItem{Name: "lab2", Status: status})

			assert.Empty(t, text)
			var protoErr *model.ProtocolError
			require.True(t, errors.As(err, &protoErr))
		})
	}
}

func TestTranslateStatus_MissingName(t *testing.T) {
	_, err := application.TranslateStatus(model.ReviewItem{Status: model.ReviewStatusApproved})

	var protoErr *model.ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.Contains(t, err.Error(), "homework_name")
}
