package fixture

// ContentsV0 is the canned file-definition set for the initial
// snapshot: a kernel under usr/lib/modules, a shell, a pair of files
// with identical content (must dedup to one object), some configs with
// varied ownership, and a few top-level directories.
const ContentsV0 = `r usr/lib/modules/5.10.18-200.x86_64/vmlinuz this-is-a-kernel
r usr/lib/modules/5.10.18-200.x86_64/initramfs this-is-an-initramfs
m 0 0 755
r usr/bin/bash the-bash-shell
l usr/bin/sh bash
m 0 0 644
# Should be the same object
r usr/bin/hardlink-a testlink
r usr/bin/hardlink-b testlink
r usr/etc/someconfig.conf someconfig
m 10 10 644
r usr/etc/polkit.conf a-polkit-config
m
d boot
d run
m 0 0 1755
d tmp
`

// ContentsV1 is the follow-up snapshot committed by Update: everything
// from v0 plus a changed shell, a new binary, and a new config.
const ContentsV1 = `r usr/lib/modules/5.10.18-200.x86_64/vmlinuz this-is-a-kernel
r usr/lib/modules/5.10.18-200.x86_64/initramfs this-is-an-initramfs
m 0 0 755
r usr/bin/bash the-bash-shell-v1
l usr/bin/sh bash
r usr/bin/newbin this-is-a-new-binary
m 0 0 644
r usr/bin/hardlink-a testlink
r usr/bin/hardlink-b testlink
r usr/etc/someconfig.conf someconfig
m 10 10 644
r usr/etc/polkit.conf a-polkit-config
r usr/etc/anewfile.conf new-config-contents
m
d boot
d run
m 0 0 1755
d tmp
`
