// SPDX-License-Identifier: Apache-2.0
package gpg

// Argument vectors for every gpg invocation. Element 0 is the tool path.
// Passphrases only ever appear in decryptArgs.

func versionArgs(path string) []string {
	return []string{path, "--version"}
}

func genKeyArgs(tool Tool, homedir string) []string {
	return []string{tool.Path, "--batch", "--no-tty", "--homedir", homedir, "--gen-key"}
}

// exportArgs builds the export vector. passphraseOnStdin switches a 2.1+
// tool to read the passphrase protecting secret material from fd 0.
func exportArgs(tool Tool, homedir string, secret, passphraseOnStdin bool) []string {
	args := []string{tool.Path, "--no-version", "--batch"}
	if passphraseOnStdin {
		args = append(args, "--pinentry-mode", "loopback", "--passphrase-fd", "0")
	}
	mode := "--export"
	if secret {
		mode = "--export-secret-keys"
	}
	return append(args, "--homedir", homedir, mode, "--armor", "-o", "-")
}

func importArgs(tool Tool, homedir, keysPath string) []string {
	args := []string{tool.Path, "--no-tty"}
	if tool.NeedsLoopback() {
		// secret key import asks for a pinentry otherwise
		args = append(args, "--batch")
	}
	return append(args, "--homedir", homedir, "--import", keysPath)
}

func listArgs(tool Tool, homedir string, secret bool) []string {
	kind := "public"
	if secret {
		kind = "secret"
	}
	return []string{tool.Path, "--no-tty", "--list-" + kind + "-keys", "--fingerprint", "--homedir", homedir}
}

func encryptArgs(tool Tool, recipient, homedir string) []string {
	return []string{
		tool.Path,
		"--batch",
		"--no-tty",
		"--always-trust",
		"--armor",
		"--recipient", recipient,
		"--homedir", homedir,
		"--encrypt",
	}
}

// passphraseArg is the option carrying the decrypt passphrase: either
// --passphrase <pw> or --passphrase-file <path>.
type passphraseArg struct {
	flag  string
	value string
}

func decryptArgs(tool Tool, recipient, homedir string, pass passphraseArg) []string {
	args := []string{
		tool.Path,
		"--batch",
		"--no-tty",
		"--always-trust",
		"--recipient", recipient,
		"--homedir", homedir,
	}
	if tool.NeedsLoopback() {
		args = append(args, "--pinentry-mode", "loopback")
	}
	args = append(args, pass.flag, pass.value)
	return append(args, "--emit-version", "-o", "-", "-d", "-")
}

func killAgentArgs(tool Tool, homedir string) []string {
	return []string{tool.AgentControl, "--homedir", homedir, "--kill", "all"}
}

// redactArgs returns a copy of args safe for logging
func redactArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i++ {
		if out[i] == "--passphrase" {
			out[i+1] = "[redacted]"
		}
	}
	return out
}
