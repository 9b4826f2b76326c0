package mail

import (
	"context"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/offsuit/analyzer/internal/config"
)

func TestNewSMTP(t *testing.T) {
	Convey("Given SMTP settings", t, func() {
		Convey("A full config builds a notifier with the default port", func() {
			n, err := NewSMTP(config.SMTPConfig{
				Host: "smtp.example.com", From: "league@example.com",
			}, []string{"admin@example.com"})
			So(err, ShouldBeNil)
			So(n.port, ShouldEqual, 587)
		})

		Convey("A missing host is rejected", func() {
			_, err := NewSMTP(config.SMTPConfig{From: "league@example.com"},
				[]string{"admin@example.com"})
			So(err, ShouldNotBeNil)
		})

		Convey("No recipients is rejected", func() {
			_, err := NewSMTP(config.SMTPConfig{
				Host: "smtp.example.com", From: "league@example.com",
			}, nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestBuildMessage(t *testing.T) {
	Convey("Given a notifier", t, func() {
		n, err := NewSMTP(config.SMTPConfig{
			Host: "smtp.example.com", Port: 2525, From: "league@example.com",
		}, []string{"a@example.com", "b@example.com"})
		So(err, ShouldBeNil)

		Convey("When building a message with an attachment", func() {
			msg := string(n.buildMessage("Action Required", "please review", []byte("john | NO_LAST_NAME")))

			Convey("Then headers and both parts are present", func() {
				So(msg, ShouldContainSubstring, "Subject: Action Required")
				So(msg, ShouldContainSubstring, "To: a@example.com, b@example.com")
				So(msg, ShouldContainSubstring, "please review")
				So(msg, ShouldContainSubstring, "Content-Disposition: attachment")
				So(msg, ShouldContainSubstring, "john | NO_LAST_NAME")
			})
		})

		Convey("When building a message without an attachment", func() {
			msg := string(n.buildMessage("No Action Required", "all clear", nil))

			So(msg, ShouldContainSubstring, "all clear")
			So(msg, ShouldNotContainSubstring, "Content-Disposition: attachment")
			// Exactly one boundary open and the closing marker.
			So(strings.Count(msg, "--offsuit-mail-boundary\r\n"), ShouldEqual, 1)
			So(msg, ShouldContainSubstring, "--offsuit-mail-boundary--")
		})
	})
}

func TestNoop(t *testing.T) {
	Convey("The no-op notifier never fails", t, func() {
		So(Noop{}.Notify(context.Background(), "s", "b", nil), ShouldBeNil)
	})
}
