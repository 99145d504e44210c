package govtalk

import (
	"encoding/xml"
	"strings"
)

// envelopeNamespace is the GovTalk envelope namespace.
const envelopeNamespace = "http://www.govtalk.gov.uk/CM/envelope"

// envelopeVersion is the envelope schema version spoken by this client.
const envelopeVersion = "2.0"

// Render serializes the envelope to its wire form. The body is embedded
// verbatim; everything else is escaped.
func (e *Envelope) Render() string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sb.WriteString(`<GovTalkMessage xmlns="` + envelopeNamespace + `">`)
	writeElement(&sb, "EnvelopeVersion", envelopeVersion)

	sb.WriteString("<Header>")
	sb.WriteString("<MessageDetails>")
	writeElement(&sb, "Class", e.MessageDetails.Class)
	writeElement(&sb, "Qualifier", e.MessageDetails.Qualifier)
	writeElement(&sb, "Function", e.MessageDetails.Function)
	if e.MessageDetails.CorrelationID != "" {
		writeElement(&sb, "CorrelationID", e.MessageDetails.CorrelationID)
	}
	if e.MessageDetails.Transformation != "" {
		writeElement(&sb, "Transformation", e.MessageDetails.Transformation)
	}
	if e.TestMode {
		writeElement(&sb, "GatewayTest", "1")
	}
	sb.WriteString("</MessageDetails>")

	sb.WriteString("<SenderDetails>")
	sb.WriteString("<IDAuthentication>")
	writeElement(&sb, "SenderID", e.SenderID)
	sb.WriteString("<Authentication>")
	writeElement(&sb, "Method", "clear")
	writeElement(&sb, "Role", "principal")
	writeElement(&sb, "Value", e.Password)
	sb.WriteString("</Authentication>")
	sb.WriteString("</IDAuthentication>")
	sb.WriteString("</SenderDetails>")
	sb.WriteString("</Header>")

	sb.WriteString("<GovTalkDetails>")
	sb.WriteString("<Keys>")
	for _, key := range e.Keys {
		sb.WriteString(`<Key Type="`)
		_ = xml.EscapeText(&sb, []byte(key.Type))
		sb.WriteString(`">`)
		_ = xml.EscapeText(&sb, []byte(key.Value))
		sb.WriteString("</Key>")
	}
	sb.WriteString("</Keys>")
	sb.WriteString("<TargetDetails>")
	writeElement(&sb, "Organisation", "IR")
	sb.WriteString("</TargetDetails>")
	sb.WriteString("<ChannelRouting>")
	sb.WriteString("<Channel>")
	writeElement(&sb, "URI", e.Channel.URI)
	writeElement(&sb, "Product", e.Channel.Product)
	writeElement(&sb, "Version", e.Channel.Version)
	sb.WriteString("</Channel>")
	sb.WriteString("</ChannelRouting>")
	sb.WriteString("</GovTalkDetails>")

	sb.WriteString("<Body>")
	sb.WriteString(e.Body)
	sb.WriteString("</Body>")
	sb.WriteString("</GovTalkMessage>")

	return sb.String()
}

// writeElement writes a complete element with an escaped text value.
func writeElement(sb *strings.Builder, name string, value string) {
	sb.WriteString("<" + name + ">")
	_ = xml.EscapeText(sb, []byte(value))
	sb.WriteString("</" + name + ">")
}
