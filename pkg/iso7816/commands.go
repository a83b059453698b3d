package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/card-explorer/pkg/tlv"
)

// Builders for the interindustry commands used to walk a card, and the
// decoding of their parameters for reports.

// SelectionMethod is P1 of SELECT (ISO 7816-4 table 39).
type SelectionMethod byte

const (
	SelectByFileID          SelectionMethod = 0x00
	SelectChildDF           SelectionMethod = 0x01
	SelectEFUnderCurrentDF  SelectionMethod = 0x02
	SelectParentDF          SelectionMethod = 0x03
	SelectByDFName          SelectionMethod = 0x04 // AID or directory name
	SelectPathFromMF        SelectionMethod = 0x08
	SelectPathFromCurrentDF SelectionMethod = 0x09
)

var selectionMethods = map[SelectionMethod]string{
	SelectByFileID:          "Select by File ID",
	SelectChildDF:           "Select Child DF",
	SelectEFUnderCurrentDF:  "Select EF under current DF",
	SelectParentDF:          "Select Parent DF",
	SelectByDFName:          "Select by DF Name (AID)",
	SelectPathFromMF:        "Select Path from MF",
	SelectPathFromCurrentDF: "Select Path from Current DF",
}

func (s SelectionMethod) String() string {
	return lookup(selectionMethods, s, "Unknown Method (0x%02X)")
}

// FileOccurrence is b2-b1 of SELECT P2.
type FileOccurrence byte

const (
	FirstOrOnlyOccurrence FileOccurrence = 0b00
	LastOccurrence        FileOccurrence = 0b01
	NextOccurrence        FileOccurrence = 0b10
	PreviousOccurrence    FileOccurrence = 0b11
)

var fileOccurrences = map[FileOccurrence]string{
	FirstOrOnlyOccurrence: "First/Only",
	LastOccurrence:        "Last",
	NextOccurrence:        "Next",
	PreviousOccurrence:    "Previous",
}

func (f FileOccurrence) String() string {
	return lookup(fileOccurrences, f, "Unknown Occurrence (0x%02X)")
}

// SelectionControl is b4-b3 of SELECT P2: what the card returns.
type SelectionControl byte

const (
	ReturnFCI    SelectionControl = 0b0000
	ReturnFCP    SelectionControl = 0b0100
	ReturnFMD    SelectionControl = 0b1000
	ReturnNoData SelectionControl = 0b1100
)

var selectionControls = map[SelectionControl]string{
	ReturnFCI:    "Return FCI",
	ReturnFCP:    "Return FCP",
	ReturnFMD:    "Return FMD",
	ReturnNoData: "No Response Data",
}

func (s SelectionControl) String() string {
	return lookup(selectionControls, s, "Unknown Control (0x%02X)")
}

// ReadRecordMode is b3-b1 of READ RECORD P2. With b3 set, P1 is a record
// number; otherwise it is a record identifier.
type ReadRecordMode byte

const (
	RefByID_FirstOccurrence      ReadRecordMode = 0b000
	RefByID_LastOccurrence       ReadRecordMode = 0b001
	RefByID_NextOccurrence       ReadRecordMode = 0b010
	RefByID_PreviousOccurrence   ReadRecordMode = 0b011
	RefByNum_ReadP1              ReadRecordMode = 0b100
	RefByNum_ReadAllFromP1       ReadRecordMode = 0b101
	RefByNum_ReadAllFromLastToP1 ReadRecordMode = 0b110
)

var readRecordModes = map[ReadRecordMode]string{
	RefByID_FirstOccurrence:      "Ref ID: First Occurrence",
	RefByID_LastOccurrence:       "Ref ID: Last Occurrence",
	RefByID_NextOccurrence:       "Ref ID: Next Occurrence",
	RefByID_PreviousOccurrence:   "Ref ID: Previous Occurrence",
	RefByNum_ReadP1:              "Ref Num: Read Record P1",
	RefByNum_ReadAllFromP1:       "Ref Num: Read All from P1",
	RefByNum_ReadAllFromLastToP1: "Ref Num: Read All from Last to P1",
}

func (m ReadRecordMode) String() string {
	return lookup(readRecordModes, m, "Unknown Mode (0x%X)")
}

// ByNumber reports whether P1 holds a record number.
func (m ReadRecordMode) ByNumber() bool {
	return m&0b100 != 0
}

func lookup[K ~byte](names map[K]string, k K, unknown string) string {
	if name, ok := names[k]; ok {
		return name
	}
	return fmt.Sprintf(unknown, byte(k))
}

// SelectByName selects a DF by name (AID, or a directory such as
// "1PAY.SYS.DDF01") and asks for its FCI.
//
// The command carries no Le: under T=0 a case 4 command cannot send both Lc
// and Le, the card answers '61XX' and the Client fetches the FCI.
func SelectByName(cla Class, name []byte) *CommandAPDU {
	ins, _ := NewInstruction(INS_SELECT)
	p2 := byte(ReturnFCI) | byte(FirstOrOnlyOccurrence)
	return NewCommandAPDU(cla, ins, byte(SelectByDFName), p2, name, 0)
}

// ReadRecord reads record number record of the EF with short identifier sfi
// (0 for the current EF).
func ReadRecord(cla Class, sfi byte, record byte) *CommandAPDU {
	ins, _ := NewInstruction(INS_READ_RECORD)
	p2 := sfi<<3 | byte(RefByNum_ReadP1)
	return NewCommandAPDU(cla, ins, record, p2, nil, MaxShortLe)
}

// GetResponse fetches ne bytes left pending by a '61XX' status.
func GetResponse(cla Class, ne int) *CommandAPDU {
	ins, _ := NewInstruction(INS_GET_RESPONSE)
	return NewCommandAPDU(cla, ins, 0x00, 0x00, nil, ne)
}

// describeCommand decodes the parameters of SELECT and READ RECORD.
func describeCommand(sb *strings.Builder, cmd *CommandAPDU) {
	if cmd == nil {
		return
	}

	switch cmd.Instruction.Raw {
	case INS_SELECT:
		fmt.Fprintf(sb, "    + Method:  %02X -> %s\n", cmd.P1, SelectionMethod(cmd.P1))
		fmt.Fprintf(sb, "    + Control: %02X -> %s | %s\n", cmd.P2, FileOccurrence(cmd.P2&0x03), SelectionControl(cmd.P2&0x0C))
		if len(cmd.Data) > 0 {
			fmt.Fprintf(sb, "    + Data:    %X (%q)\n", cmd.Data, tlv.Printable(cmd.Data))
		}

	case INS_READ_RECORD:
		sfi := cmd.P2 >> 3
		mode := ReadRecordMode(cmd.P2 & 0x07)

		target := "Current EF"
		if sfi > 0 {
			target = fmt.Sprintf("SFI %02X (%d)", sfi, sfi)
		}
		fmt.Fprintf(sb, "    + Target:  %s\n", target)

		record := fmt.Sprintf("Record Identifier %02X", cmd.P1)
		switch {
		case mode.ByNumber() && cmd.P1 == 0:
			record = "Current Record"
		case mode.ByNumber():
			record = fmt.Sprintf("Record Number %d", cmd.P1)
		}
		fmt.Fprintf(sb, "    + P1:      %02X -> %s\n", cmd.P1, record)
		fmt.Fprintf(sb, "    + Mode:    %02X -> %s\n", byte(mode), mode)

	default:
		if cmd.Class.IsReader {
			fmt.Fprintf(sb, "    + Class:   %s\n", cmd.Class)
		}
	}
}
