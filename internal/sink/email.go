package sink

import (
	"context"
	"fmt"
	"html/template"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
	"content-tracker/pkg/mailer"
)

var newVideoTemplate = template.Must(template.New("new_video").Parse(`<!doctype html>
<html>
<body>
	<p><b>@{{.AuthorUsername}}</b> just posted a new video.</p>
	{{if .Caption}}<p>{{.Caption}}</p>{{end}}
	{{if .CoverImageURL}}<p><img src="{{.CoverImageURL}}" alt="cover" width="240"></p>{{end}}
	<p>Check it out here: <a href="{{.VideoURL}}">{{.VideoURL}}</a></p>
</body>
</html>`))

type Email struct {
	mailer mailer.Mailer
}

func NewEmail(m mailer.Mailer) *Email {
	return &Email{mailer: m}
}

func Subject(content model.DiscoveredContent) string {
	return fmt.Sprintf("New video from @%s!", content.AuthorUsername)
}

func (s *Email) Deliver(ctx context.Context, subscriber model.Subscriber, content model.DiscoveredContent) error {
	if err := s.mailer.SendHTML(ctx, subscriber.Address, Subject(content), newVideoTemplate, content); err != nil {
		return fmt.Errorf("%w: %s: %w", apperrors.ErrSinkDeliveryFailed, subscriber.Address, err)
	}

	return nil
}
