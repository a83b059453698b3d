package emv

import (
	"fmt"
	"strings"

	"github.com/gregLibert/card-explorer/pkg/tlv"
	"github.com/moov-io/bertlv"
)

type DirectoryDiscretionaryTemplate struct {
	ApplicationSelectionRegisteredProprietaryData []byte `tlv:"9F0A"`
	IssuerCountryCodeAlpha3                       []byte `tlv:"5F56" fmt:"ascii"`
	IssuerCountryCodeAlpha2                       []byte `tlv:"5F55" fmt:"ascii"`
	BankIdentifierCode                            []byte `tlv:"5F54" fmt:"ascii"`
	IBAN                                          []byte `tlv:"5F53" fmt:"ascii"`
	IssuerURL                                     []byte `tlv:"5F50" fmt:"ascii"`
	IssuerIdentificationNumber                    []byte `tlv:"42"`
	IssuerIdentificationNumberExtended            []byte `tlv:"9F0C"`
	LogEntry                                      []byte `tlv:"9F4D"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ApplicationTemplate (Tag '61') represents an entry in the Payment System Directory.
// It contains the necessary information to select a specific application.
type ApplicationTemplate struct {
	AID                          []byte                         `tlv:"4F"`             // Mandatory
	ApplicationLabel             []byte                         `tlv:"50" fmt:"ascii"` // Mandatory
	ApplicationPriorityIndicator []byte                         `tlv:"87" fmt:"int"`
	DirectoryDiscretionaryData   DirectoryDiscretionaryTemplate `tlv:"73"`
	ApplicationPreferredName     []byte                         `tlv:"9F12" fmt:"ascii"`
	DDFName                      []byte                         `tlv:"9D" fmt:"ascii"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// DirectoryRecord represents the content of a record read from the PSE SFI.
// It is wrapped in a Record Template (Tag '70').
type DirectoryRecord struct {
	// A record can technically contain multiple application templates
	Applications []ApplicationTemplate `tlv:"61"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseDirectoryRecord interprets raw bytes from a READ RECORD command as EMV directory data.
func ParseDirectoryRecord(data []byte) (*DirectoryRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty record data")
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}

	// The record must be wrapped in Tag '70'
	var processingPackets []bertlv.TLV
	if len(packets) > 0 && strings.EqualFold(packets[0].Tag, tlv.FormatTag(TagRecordTemplate)) {
		processingPackets = packets[0].TLVs
	} else {
		return nil, fmt.Errorf("missing mandatory Record Template (Tag 70)")
	}

	record := &DirectoryRecord{}
	if err := tlv.UnmarshalFromPackets(processingPackets, record); err != nil {
		return nil, fmt.Errorf("failed to map directory record: %w", err)
	}

	return record, nil
}

// ParseApplicationTemplate maps a decoded Application Template (Tag '61').
func ParseApplicationTemplate(n *tlv.Node) (*ApplicationTemplate, error) {
	if n == nil || n.Tag != TagApplicationTemplate {
		return nil, fmt.Errorf("not an Application Template (Tag 61)")
	}

	app := &ApplicationTemplate{}
	if err := tlv.UnmarshalNode(n, app); err != nil {
		return nil, fmt.Errorf("failed to map application template: %w", err)
	}
	return app, nil
}

// Name returns the preferred name when present, the label otherwise.
func (a *ApplicationTemplate) Name() string {
	if len(a.ApplicationPreferredName) > 0 {
		return tlv.Printable(a.ApplicationPreferredName)
	}
	return tlv.Printable(a.ApplicationLabel)
}

// Describe lists the fields of every application template in the record.
func (r *DirectoryRecord) Describe() string {
	lines := []string{"=== EMV DIRECTORY RECORD ==="}
	lines = append(lines, tlv.FieldLines("Record", r)...)
	for i, app := range r.Applications {
		prefix := fmt.Sprintf("App[%d]", i+1)
		lines = append(lines, tlv.FieldLines(prefix, app)...)
		lines = append(lines, tlv.FieldLines(prefix+".Discretionary", app.DirectoryDiscretionaryData)...)
	}
	return strings.Join(lines, "\n")
}
