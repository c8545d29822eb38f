package service

import (
	"context"
	"fmt"
	"strings"

	"lasrouter/internal/adapters/mailbox"
	"lasrouter/internal/core/normalize"
	"lasrouter/internal/platform/logger"
	ledger "lasrouter/internal/services/ledger/domain"
	"lasrouter/internal/services/orchestrator/domain"
)

// HandleInbound runs the pipeline for one inbound message and sends the reply
// Quoted history in the body is ignored so an old request is not resolved twice
func (s *Service) HandleInbound(ctx context.Context, msg mailbox.Message) error {
	ctx = logger.WithRequest(ctx, msg.ID)
	text := msg.Subject + "\n" + normalize.StripQuoted(msg.Body)

	qr, err := s.run(ctx, ledger.OriginInbound, msg.From, text, true)
	if err != nil {
		logger.C(ctx).Error().Err(err).Str("from", msg.From).Msg("inbound pipeline failed")
	}
	if s.d.Mailer == nil {
		return err
	}
	if serr := s.d.Mailer.Send(ctx, BuildReply(msg, qr, err)); serr != nil {
		logger.C(ctx).Error().Err(serr).Str("to", msg.From).Msg("reply not sent")
		if err == nil {
			err = serr
		}
	}
	return err
}

// BuildReply words the answer to msg
func BuildReply(msg mailbox.Message, qr domain.QueryResult, runErr error) mailbox.Reply {
	r := mailbox.Reply{Recipient: msg.From, Subject: replySubject(msg.Subject), InReplyTo: msg.ID}
	var b strings.Builder
	b.WriteString("Hello,\n\n")

	switch {
	case qr.Clarification != nil:
		b.WriteString(qr.Clarification.Message)
		b.WriteString("\n")
		if len(qr.Clarification.Suggestions) > 0 {
			b.WriteString("\nYou could try:\n")
			for _, sug := range qr.Clarification.Suggestions {
				fmt.Fprintf(&b, "  - %s\n", sug)
			}
		}
	case qr.Request != nil && qr.Request.Status == ledger.StatusCompleted:
		req := qr.Request
		fmt.Fprintf(&b, "Your %s has completed.\n\n", analysisName(req))
		writeRun(&b, req)
		b.WriteString("\nThe result is attached.\n")
		r.AttachmentPath = req.OutputArtifactPath
	case qr.Request != nil:
		req := qr.Request
		fmt.Fprintf(&b, "Your %s could not be completed.\n\n", analysisName(req))
		writeRun(&b, req)
		fmt.Fprintf(&b, "Error: %s\n", req.ErrorDetail)
	default:
		detail := "unknown error"
		if runErr != nil {
			detail = runErr.Error()
		}
		fmt.Fprintf(&b, "Your request could not be processed.\n\nError: %s\n", detail)
	}
	fmt.Fprintf(&b, "\nRequest: %q\n", strings.TrimSpace(msg.Subject))
	r.BodyText = b.String()
	return r
}

func writeRun(b *strings.Builder, req *ledger.Request) {
	if res := req.Resolution; res != nil {
		fmt.Fprintf(b, "Tool: %s\nScript: %s\nLAS file: %s\n", res.Tool, res.Script, res.LASFile)
	}
	if req.DurationMs != nil {
		fmt.Fprintf(b, "Duration: %d ms\n", *req.DurationMs)
	}
	if req.ID != "" {
		fmt.Fprintf(b, "Reference: %s\n", req.ID)
	}
}

func analysisName(req *ledger.Request) string {
	if req.Resolution == nil || req.Resolution.Script == "" {
		return "analysis"
	}
	stem := strings.TrimSuffix(req.Resolution.Script, ".py")
	for _, suf := range []string{"_analyzer", "_calculator", "_classifier", "_visualization"} {
		stem = strings.TrimSuffix(stem, suf)
	}
	return strings.ReplaceAll(stem, "_", " ") + " analysis"
}

func replySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "Re: your analysis request"
	}
	if len(subject) >= 3 && strings.EqualFold(subject[:3], "re:") {
		return subject
	}
	return "Re: " + subject
}
