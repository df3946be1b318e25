package email

import (
	"testing"

	"meetingscheduler/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRenderer_MeetingScheduled(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	subject, html, text, err := r.Render("meeting_scheduled", &domain.MeetingScheduledEmailData{
		Email:      "peach@example.com",
		Name:       "Peach",
		EventTitle: "Tea <party>",
		Location:   "Castle",
		Date:       "2023-04-05",
		Time:       "10:00",
		VoteCount:  1,
	})
	require.NoError(t, err)

	assert.Equal(t, "Tea <party> is scheduled for 2023-04-05 at 10:00", subject)
	assert.Contains(t, html, "Tea &lt;party&gt;")
	assert.Contains(t, html, "1 vote.")
	assert.Contains(t, text, "Hi Peach,")
	assert.Contains(t, text, "on 2023-04-05 at 10:00 at Castle.")
}

func TestTemplateRenderer_unknownTemplate(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	_, _, _, err = r.Render("welcome", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render subject")
}
