package internal

import "github.com/dmitrymomot/templatemailer/pkg/mailer"

// SenderRef names the sender of an email: either an explicit address or
// the symbolic name of a configured sender. An explicit address wins.
type SenderRef struct {
	Address mailer.Address
	Name    string
}

// ExplicitSender returns a SenderRef for the given address and display name.
func ExplicitSender(address, name string) SenderRef {
	return SenderRef{Address: mailer.Address{Address: address, Name: name}}
}

// NamedSender returns a SenderRef for a sender configured under senderAddresses.
func NamedSender(name string) SenderRef {
	return SenderRef{Name: name}
}

// resolveSender turns ref into a concrete address.
func (c Config) resolveSender(ref SenderRef) (mailer.Address, error) {
	if !ref.Address.IsZero() {
		return ref.Address, nil
	}

	name := ref.Name
	if name == "" {
		name = DefaultSender
	}

	path := c.path("senderAddresses." + name)
	sender, ok := c.SenderAddresses[name]
	if !ok {
		return mailer.Address{}, configError(path, "sender %q is not configured", name)
	}
	if sender.Address == "" {
		return mailer.Address{}, configError(path+".address", "sender %q has no address", name)
	}
	if sender.Name == "" {
		return mailer.Address{}, configError(path+".name", "sender %q has no name", name)
	}

	return mailer.Address{Address: sender.Address, Name: sender.Name}, nil
}
