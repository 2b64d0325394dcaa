package memory_map

import "strings"

// ProtectionFlags classifies the access rights of a region. Exactly one of
// the base values is set, optionally combined with ProtGuard. The bit values
// are those of the Windows PAGE_* constants, so a Windows protect value
// converts by masking and a Linux perms string converts via ProtectionFromPerms.
type ProtectionFlags uint32

const (
	ProtNoAccess         ProtectionFlags = 0x01
	ProtReadOnly         ProtectionFlags = 0x02
	ProtReadWrite        ProtectionFlags = 0x04
	ProtWriteCopy        ProtectionFlags = 0x08
	ProtExecute          ProtectionFlags = 0x10
	ProtExecuteRead      ProtectionFlags = 0x20
	ProtExecuteReadWrite ProtectionFlags = 0x40
	ProtExecuteWriteCopy ProtectionFlags = 0x80
	ProtGuard            ProtectionFlags = 0x100

	protKnown = ProtNoAccess | ProtReadOnly | ProtReadWrite | ProtWriteCopy |
		ProtExecute | ProtExecuteRead | ProtExecuteReadWrite | ProtExecuteWriteCopy | ProtGuard
)

// ProtAccessible is every protection whose pages can be read.
const ProtAccessible = ProtReadOnly | ProtReadWrite | ProtWriteCopy |
	ProtExecuteRead | ProtExecuteReadWrite | ProtExecuteWriteCopy

// ProtWritable is every protection whose pages can be written (directly or copy-on-write).
const ProtWritable = ProtReadWrite | ProtWriteCopy | ProtExecuteReadWrite | ProtExecuteWriteCopy

// ProtectionFromWindows drops the modifier bits Windows adds beside PAGE_GUARD
// (PAGE_NOCACHE, PAGE_WRITECOMBINE, ...).
func ProtectionFromWindows(protect uint32) ProtectionFlags {
	return ProtectionFlags(protect) & protKnown
}

// ProtectionFromPerms converts a /proc/<pid>/maps perms field ("rw-p").
// A writable private mapping backed by a file is copy-on-write.
func ProtectionFromPerms(perms string, fileBacked bool) ProtectionFlags {
	if len(perms) < 3 {
		return ProtNoAccess
	}

	r := perms[0] == 'r'
	w := perms[1] == 'w'
	x := perms[2] == 'x'
	cow := w && fileBacked && len(perms) > 3 && perms[3] == 'p'

	switch {
	case x && w:
		if cow {
			return ProtExecuteWriteCopy
		}
		return ProtExecuteReadWrite
	case x && r:
		return ProtExecuteRead
	case x:
		return ProtExecute
	case w:
		// x86 has no write-only pages
		if cow {
			return ProtWriteCopy
		}
		return ProtReadWrite
	case r:
		return ProtReadOnly
	}
	return ProtNoAccess
}

// Matches reports whether the protection is usable and intersects allow.
func (p ProtectionFlags) Matches(allow ProtectionFlags) bool {
	if p&ProtGuard != 0 {
		return false
	}
	if p == ProtNoAccess {
		return false
	}
	return p&allow != 0
}

// IsReadable: not no-access, not guarded, and one of the accessible protections.
func (p ProtectionFlags) IsReadable() bool {
	return p.Matches(ProtAccessible)
}

func (p ProtectionFlags) IsWritable() bool {
	return p.Matches(ProtWritable)
}

func (p ProtectionFlags) IsExecutable() bool {
	return p.Matches(ProtExecute | ProtExecuteRead | ProtExecuteReadWrite | ProtExecuteWriteCopy)
}

// String renders the protection in the /proc maps style with a trailing
// 'c' for copy-on-write and 'g' for guard pages.
func (p ProtectionFlags) String() string {
	var sb strings.Builder
	base := p &^ ProtGuard

	sb.WriteByte(flagChar(base.Matches(ProtAccessible), 'r'))
	sb.WriteByte(flagChar(base.Matches(ProtWritable), 'w'))
	sb.WriteByte(flagChar(base.IsExecutable(), 'x'))
	sb.WriteByte(flagChar(base&(ProtWriteCopy|ProtExecuteWriteCopy) != 0, 'c'))
	sb.WriteByte(flagChar(p&ProtGuard != 0, 'g'))

	return sb.String()
}

func flagChar(set bool, c byte) byte {
	if set {
		return c
	}
	return '-'
}
