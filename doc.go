// Package wirebus is a service-to-service message bus with pluggable
// transports and payload encoders.
//
// A Client represents one service on the bus. It sends to other services
// through a ServiceClient and receives through Bindings:
//
//	client := wirebus.NewClient("shop", transport, codecencoder.New())
//
//	client.Bind("stock").To(func(msg *wirebus.Message) {
//		var items []string
//		if err := msg.Into(&items); err != nil {
//			return
//		}
//		msg.Reply(int32(len(items)))
//	})
//
//	reply := client.Service("inventory").Request("stock", []string{"apple"})
//
// Bind delivers every message to every instance of a service, BindQueue
// delivers each message to one instance, and BindOnce releases itself after
// its first message. A Binding is released exactly once; Unbind reports
// ErrBindingClosed on later calls.
//
// Transports live in the transports subpackages (NATS and in-process) and
// encoders in the encoders subpackages. The codecencoder encoder carries
// values in the type-directed binary format implemented by package codec.
package wirebus
