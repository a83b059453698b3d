/*
Package iso7816 implements data structures and logic to interact with smart cards according to the ISO/IEC 7816 standard.

This package provides the fundamental building blocks for APDU (Application Protocol Data Unit) communication, including Command and Response structures, Status Word (SW) analysis, and the transport-level retries a card may ask for.

# Fundamentals

The communication with a smart card is strictly synchronous:
 1. The Host sends a Command APDU (Header + Optional Body).
 2. The Card processes it and returns a Response APDU (Optional Body + Trailer SW1/SW2).

# Status Words

Every response ends with a 2-byte Status Word (SW).
  - 0x9000: Success (OK).
  - 0x61XX: Success, but response data is still available (XX bytes).
  - 0x6CXX: Error, wrong length expectation (XX is the correct length).
  - Other: Various error conditions.

# Client and Trace

A Client sends one logical command and follows the card's lead: on '61XX' it
issues GET RESPONSE, on '6CXX' it resends the command with the corrected Le.
Every physical exchange is kept in a Trace, and NewResponse snapshots the
outcome of the last one.

# Application

Application binds a Client to a class byte and exposes the commands used to
explore a card (SELECT by name, READ RECORD, raw commands). Hooks observe each
command before it is sent and each Response once it settles.

	app := iso7816.NewApplication(iso7816.NewClient(card, log), cls, iso7816.Hooks{}, log)

	resp, err := app.SelectFile(ctx, []byte("1PAY.SYS.DDF01"))
	if err != nil {
	    return err
	}
	if !resp.IsOK() {
	    log.Warn("selection refused", "status", resp.Meaning())
	}

	// Human-readable report with the decoded command and TLV payload.
	fmt.Println(resp.Describe(emv.TagName))
*/
package iso7816
