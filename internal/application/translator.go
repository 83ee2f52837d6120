package application

import (
	"fmt"

	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
)

// verdicts maps every recognized review status to the sentence sent to the user.
var verdicts = map[model.ReviewStatus]string{
	model.ReviewStatusReviewing: "The work has been taken for review.",
	model.ReviewStatusApproved:  "The reviewer liked everything, you can move on to the next lesson.",
	model.ReviewStatusRejected:  "Unfortunately, the reviewer found mistakes in the work.",
}

// Verdict returns the fixed verdict sentence for status and whether the status
// is recognized.
func Verdict(status model.ReviewStatus) (string, bool) {
	v, ok := verdicts[status]
	return v, ok
}

// TranslateStatus renders the notification text for a review item.
// An unrecognized status or a missing name is a data-contract violation and
// yields a *model.ProtocolError.
func TranslateStatus(item model.ReviewItem) (string, error) {
	if item.Name == "" {
		return "", model.NewProtocolError("homework item has no homework_name", nil)
	}

	verdict, ok := Verdict(item.Status)
	if !ok {
		return "", model.NewProtocolError(
			fmt.Sprintf("unrecognized status %q for homework %q", item.Status, item.Name), nil)
	}

	return fmt.Sprintf("Review status changed for \"%s\": %s", item.Name, verdict), nil
}
