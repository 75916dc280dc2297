// gdbstub_targetxml.go - Cortex-M target description served over
// qXfer:features:read

package main

const targetXML = `<?xml version="1.0"?>
<!DOCTYPE target SYSTEM "gdb-target.dtd">
<target>
  <feature name="org.gnu.gdb.arm.m-profile">
    <reg name="r0" bitsize="32"/>
    <reg name="r1" bitsize="32"/>
    <reg name="r2" bitsize="32"/>
    <reg name="r3" bitsize="32"/>
    <reg name="r4" bitsize="32"/>
    <reg name="r5" bitsize="32"/>
    <reg name="r6" bitsize="32"/>
    <reg name="r7" bitsize="32"/>
    <reg name="r8" bitsize="32"/>
    <reg name="r9" bitsize="32"/>
    <reg name="r10" bitsize="32"/>
    <reg name="r11" bitsize="32"/>
    <reg name="r12" bitsize="32"/>
    <reg name="sp" bitsize="32" type="data_ptr"/>
    <reg name="lr" bitsize="32"/>
    <reg name="pc" bitsize="32" type="code_ptr"/>
    <reg name="xpsr" bitsize="32"/>
  </feature>
</target>
`

// targetXMLChunk implements the qXfer "l"/"m" windowing convention over
// the fixed target.xml document.
func targetXMLChunk(offset, length int) string {
	if offset >= len(targetXML) {
		return "l"
	}
	end := offset + length
	more := true
	if end >= len(targetXML) {
		end = len(targetXML)
		more = false
	}
	chunk := targetXML[offset:end]
	if more {
		return "m" + chunk
	}
	return "l" + chunk
}
