package engine

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/screa/sha256-cracker/internal/crypto"
	"github.com/screa/sha256-cracker/pkg/device"
)

// KernelVersion identifies the single-block SHA-256 kernel revision
const KernelVersion = "sha256-single-block/v1"

// Kernel computes SHA-256 over one input slot per work-item. Inputs are
// limited to crypto.MaxMessageLen bytes so every message fits one block.
type Kernel struct{}

var _ device.Kernel = Kernel{}

// NewKernel returns the SHA-256 kernel
func NewKernel() Kernel {
	return Kernel{}
}

func (Kernel) Name() string     { return "sha256" }
func (Kernel) Source() string   { return KernelVersion }
func (Kernel) OutputWords() int { return crypto.DigestWords }

// Run hashes slot gid into output slot gid
func (Kernel) Run(gid int, args *device.Args) {
	n := int(args.Sizes[gid])
	if n > crypto.MaxMessageLen {
		panic(fmt.Sprintf("slot %d holds %d bytes, single-block limit is %d", gid, n, crypto.MaxMessageLen))
	}
	base := gid * args.SlotSize

	var w [16]uint32
	crypto.PackBlock(&w, args.Input[base:base+n])
	d := crypto.Compress(&w)

	copy(args.Output[gid*crypto.DigestWords:(gid+1)*crypto.DigestWords], d[:])
}

// knownAnswers are checked on every build
var knownAnswers = []struct {
	msg string
	hex string
}{
	{"", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
	{"abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
}

// Verify runs the kernel over known answers and the single-block boundary
// lengths, all in one dispatch-shaped buffer set.
func (k Kernel) Verify() error {
	msgs := make([]string, 0, len(knownAnswers)+4)
	want := make([]crypto.Digest, 0, cap(msgs))
	for _, ka := range knownAnswers {
		d, err := crypto.DecodeDigest(ka.hex)
		if err != nil {
			return err
		}
		msgs = append(msgs, ka.msg)
		want = append(want, d)
	}
	for _, n := range []int{1, 3, 4, crypto.MaxMessageLen} {
		msg := strings.Repeat("\xa5", n)
		msgs = append(msgs, msg)
		want = append(want, crypto.DigestFromBytes(sha256.Sum256([]byte(msg))))
	}

	args := &device.Args{
		SlotSize:    SlotSize,
		OutputWords: crypto.DigestWords,
		Input:       make([]byte, len(msgs)*SlotSize),
		Sizes:       make([]uint32, len(msgs)),
		Output:      make([]uint32, len(msgs)*crypto.DigestWords),
	}
	for i, m := range msgs {
		copy(args.Input[i*SlotSize:], m)
		args.Sizes[i] = uint32(len(m))
	}
	// Reverse order catches kernels that ignore gid.
	for gid := len(msgs) - 1; gid >= 0; gid-- {
		k.Run(gid, args)
	}

	for i := range msgs {
		var got crypto.Digest
		copy(got[:], args.Output[i*crypto.DigestWords:])
		if got != want[i] {
			return fmt.Errorf("known answer %d (%d bytes): got %s, want %s", i, len(msgs[i]), got, want[i])
		}
	}
	return nil
}
