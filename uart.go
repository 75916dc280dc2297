// uart.go - USART1 model: TX (callback-driven), RX (FIFO), TXE/RXNE IRQs

package main

import "log"

// USART1 register offsets from the peripheral's bus base.
const (
	usartSR  = 0x00
	usartDR  = 0x04
	usartBRR = 0x08
	usartCR1 = 0x0C
)

// SR flags.
const (
	usartSRTXE  = 1 << 7
	usartSRTC   = 1 << 6
	usartSRRXNE = 1 << 5
)

// CR1 flags.
const (
	usartCR1UE     = 1 << 13
	usartCR1TXEIE  = 1 << 7
	usartCR1TCIE   = 1 << 6
	usartCR1RXNEIE = 1 << 5
	usartCR1TE     = 1 << 3
	usartCR1RE     = 1 << 2
)

const rxFIFOSize = 16

// OutputFunc is called once per transmitted byte, synchronously, in the
// order DR was written. It must not re-enter the simulator.
type OutputFunc func(c byte, userData any)

// UART models the USART1 peripheral: a one-byte TX-pending register
// delivered through an output callback on the next tick, and a
// fixed-capacity circular RX FIFO fed by incoming bytes from outside.
type UART struct {
	sr   uint32
	dr   uint32
	brr  uint32
	cr1  uint32

	txPending  byte
	txHasData  bool

	rx       [rxFIFOSize]byte
	rxHead   int
	rxTail   int
	rxCount  int

	output   OutputFunc
	userData any

	nvic *NVIC
	irq  int
}

// NewUART returns a UART wired to nvic on the given IRQ line, in its
// reset state, with the given output callback (which may be nil).
func NewUART(nvic *NVIC, irq int, output OutputFunc, userData any) *UART {
	u := &UART{nvic: nvic, irq: irq, output: output, userData: userData}
	u.Reset()
	return u
}

// SetOutput replaces the output sink at runtime.
func (u *UART) SetOutput(output OutputFunc, userData any) {
	u.output = output
	u.userData = userData
}

// Reset clears all state; SR returns to TXE|TC (ready to transmit,
// previous transmission complete).
func (u *UART) Reset() {
	u.sr = usartSRTXE | usartSRTC
	u.dr = 0
	u.brr = 0
	u.cr1 = 0
	u.txPending = 0
	u.txHasData = false
	u.rxHead = 0
	u.rxTail = 0
	u.rxCount = 0
}

// IncomingChar enqueues one byte into the RX FIFO. A full FIFO drops the
// byte and logs a warning rather than blocking or overwriting.
func (u *UART) IncomingChar(c byte) {
	if u.rxCount == rxFIFOSize {
		log.Printf("usart1: rx fifo overflow, dropping byte 0x%02X", c)
		return
	}
	u.rx[u.rxTail] = c
	u.rxTail = (u.rxTail + 1) % rxFIFOSize
	u.rxCount++
	u.sr |= usartSRRXNE
	if u.cr1&usartCR1UE != 0 && u.cr1&usartCR1RXNEIE != 0 {
		u.nvic.SetPending(u.irq)
	}
}

// Tick completes any pending transmission: delivers the latched byte to
// the output callback, clears the pending flag, re-raises TXE|TC, and
// raises the TXE IRQ if enabled.
func (u *UART) Tick() {
	if !u.txHasData {
		return
	}
	c := u.txPending
	u.txHasData = false
	if u.output != nil {
		u.output(c, u.userData)
	}
	u.sr |= usartSRTXE | usartSRTC
	if u.cr1&usartCR1UE != 0 && u.cr1&usartCR1TXEIE != 0 {
		u.nvic.SetPending(u.irq)
	}
}

// Read implements the bus-compatible register read callback. Reading DR
// dequeues one byte from the RX FIFO, clearing RXNE once it is empty.
func (u *UART) Read(ctx any, offset uint32, size uint32) (uint32, Status) {
	switch offset {
	case usartSR:
		return u.sr, StatusOk
	case usartDR:
		if u.rxCount == 0 {
			return 0, StatusOk
		}
		c := u.rx[u.rxHead]
		u.rxHead = (u.rxHead + 1) % rxFIFOSize
		u.rxCount--
		if u.rxCount == 0 {
			u.sr &^= usartSRRXNE
		}
		return uint32(c), StatusOk
	case usartBRR:
		return u.brr, StatusOk
	case usartCR1:
		return u.cr1, StatusOk
	default:
		return 0, StatusOk
	}
}

// Write implements the bus-compatible register write callback.
func (u *UART) Write(ctx any, offset uint32, value uint32, size uint32) Status {
	switch offset {
	case usartSR:
		u.sr &= value
	case usartDR:
		if u.cr1&usartCR1UE == 0 {
			return StatusOk
		}
		u.txPending = byte(value)
		u.txHasData = true
		u.sr &^= usartSRTXE | usartSRTC
	case usartBRR:
		u.brr = value
	case usartCR1:
		u.cr1 = value
	default:
		return StatusInvalidAddress
	}
	return StatusOk
}
