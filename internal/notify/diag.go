package notify

import (
	"errors"
	"net"
	"strings"
)

// SMTPDiag clasifica un error de envío.
type SMTPDiag struct {
	Code      string // auth|tls|dial|timeout|rate_limited|invalid_recipient|rejected|network|unknown
	Temporary bool   // si conviene reintentar en la próxima corrida
}

// smtpRules se evalúan en orden; gana el primer match.
var smtpRules = []struct {
	diag  SMTPDiag
	match []string
}{
	{SMTPDiag{"timeout", true}, []string{"i/o timeout", "timeout"}},
	{SMTPDiag{"dial", true}, []string{"connection refused", "no such host", "dial tcp", "connectex:"}},
	{SMTPDiag{"tls", false}, []string{"x509:", "tls: handshake", "certificate"}},
	{SMTPDiag{"auth", false}, []string{"5.7.8", "535", "username and password not accepted", "authentication failed"}},
	{SMTPDiag{"rate_limited", true}, []string{"4.7.0", "rate limit", "try again later", "temporarily unavailable", "421", "451"}},
	{SMTPDiag{"invalid_recipient", false}, []string{"5.1.1", "user unknown", "mailbox not found"}},
	{SMTPDiag{"rejected", false}, []string{"5.7.1", "message rejected", "policy", "dmarc", "spf"}},
}

// DiagnoseSMTP analiza el texto del error (go-mail no expone códigos
// tipados).
func DiagnoseSMTP(err error) SMTPDiag {
	if err == nil {
		return SMTPDiag{Code: "unknown"}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return SMTPDiag{Code: "timeout", Temporary: true}
	}
	s := strings.ToLower(err.Error())
	for _, r := range smtpRules {
		for _, m := range r.match {
			if strings.Contains(s, m) {
				return r.diag
			}
		}
	}
	if ne != nil {
		return SMTPDiag{Code: "network", Temporary: true}
	}
	return SMTPDiag{Code: "unknown"}
}
