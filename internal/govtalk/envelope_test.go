package govtalk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelope_Render(t *testing.T) {
	t.Parallel()

	e := &Envelope{
		Body: `<IRenvelope xmlns="http://www.govtalk.gov.uk/taxation/charities/r68/2"><R68/></IRenvelope>`,
		Channel: Channel{
			Product: "hmrc-gift-aid",
			URI:     "0001",
			Version: "1.0.0",
		},
		Keys: []Key{{Type: "CHARID", Value: "AB12345"}},
		MessageDetails: MessageDetails{
			Class:          "HMRC-CHAR-CLM",
			Function:       "submit",
			Qualifier:      "request",
			Transformation: "XML",
		},
		Password: "secret",
		SenderID: "SENDER1",
	}

	got := e.Render()

	want := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<GovTalkMessage xmlns="http://www.govtalk.gov.uk/CM/envelope">` +
		`<EnvelopeVersion>2.0</EnvelopeVersion>` +
		`<Header>` +
		`<MessageDetails>` +
		`<Class>HMRC-CHAR-CLM</Class>` +
		`<Qualifier>request</Qualifier>` +
		`<Function>submit</Function>` +
		`<Transformation>XML</Transformation>` +
		`</MessageDetails>` +
		`<SenderDetails>` +
		`<IDAuthentication>` +
		`<SenderID>SENDER1</SenderID>` +
		`<Authentication>` +
		`<Method>clear</Method>` +
		`<Role>principal</Role>` +
		`<Value>secret</Value>` +
		`</Authentication>` +
		`</IDAuthentication>` +
		`</SenderDetails>` +
		`</Header>` +
		`<GovTalkDetails>` +
		`<Keys><Key Type="CHARID">AB12345</Key></Keys>` +
		`<TargetDetails><Organisation>IR</Organisation></TargetDetails>` +
		`<ChannelRouting>` +
		`<Channel><URI>0001</URI><Product>hmrc-gift-aid</Product><Version>1.0.0</Version></Channel>` +
		`</ChannelRouting>` +
		`</GovTalkDetails>` +
		`<Body><IRenvelope xmlns="http://www.govtalk.gov.uk/taxation/charities/r68/2"><R68/></IRenvelope></Body>` +
		`</GovTalkMessage>`

	require.Equal(t, want, got)
}

func TestEnvelope_Render_OptionalElements(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		envelope    *Envelope
		wantAbsent  []string
		wantPresent []string
	}{
		"test mode adds gateway test": {
			envelope: &Envelope{
				MessageDetails: MessageDetails{Class: "HMRC-CHAR-CLM", Function: "submit", Qualifier: "request"},
				TestMode:       true,
			},
			wantPresent: []string{"<GatewayTest>1</GatewayTest>"},
		},
		"live mode omits gateway test": {
			envelope: &Envelope{
				MessageDetails: MessageDetails{Class: "HMRC-CHAR-CLM", Function: "submit", Qualifier: "request"},
			},
			wantAbsent: []string{"<GatewayTest>"},
		},
		"correlation id set when polling": {
			envelope: &Envelope{
				MessageDetails: MessageDetails{
					Class:         "HMRC-CHAR-CLM",
					CorrelationID: "A1B2C3",
					Function:      "submit",
					Qualifier:     "poll",
				},
			},
			wantPresent: []string{"<CorrelationID>A1B2C3</CorrelationID>"},
		},
		"correlation id omitted when empty": {
			envelope: &Envelope{
				MessageDetails: MessageDetails{Class: "HMRC-CHAR-CLM", Function: "submit", Qualifier: "request"},
			},
			wantAbsent: []string{"<CorrelationID>"},
		},
		"no keys yields empty keys element": {
			envelope: &Envelope{
				MessageDetails: MessageDetails{Class: "HMRC-CHAR-CLM", Function: "submit", Qualifier: "poll"},
			},
			wantPresent: []string{"<Keys></Keys>"},
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := tc.envelope.Render()

			for _, s := range tc.wantPresent {
				require.Contains(t, got, s)
			}
			for _, s := range tc.wantAbsent {
				require.NotContains(t, got, s)
			}
		})
	}
}

func TestEnvelope_Render_EscapesValues(t *testing.T) {
	t.Parallel()

	e := &Envelope{
		Keys:           []Key{{Type: "CHARID", Value: "A&B<C>"}},
		MessageDetails: MessageDetails{Class: "HMRC-CHAR-CLM", Function: "submit", Qualifier: "request"},
		Password:       `p&ss<word>`,
		SenderID:       "SENDER1",
	}

	got := e.Render()

	require.Contains(t, got, "<Value>p&amp;ss&lt;word&gt;</Value>")
	require.Contains(t, got, `<Key Type="CHARID">A&amp;B&lt;C&gt;</Key>`)
}

func TestEnvelope_Render_BodyIsVerbatim(t *testing.T) {
	t.Parallel()

	// The body is pre-serialized XML; escaping it would corrupt the claim
	// document.
	e := &Envelope{
		Body:           `<IRmark Type="generic">IRmark+Token</IRmark>`,
		MessageDetails: MessageDetails{Class: "HMRC-CHAR-CLM", Function: "submit", Qualifier: "request"},
	}

	require.Contains(t, e.Render(), `<Body><IRmark Type="generic">IRmark+Token</IRmark></Body>`)
}
