/*
Package agent holds the packages of the agent connection layer. One
persistent socket to the mediating agent carries any number of independent
exchanges, and the packages below correlate the inbound frames with the
waiting callers.

The agent package is empty itself. All the functionality is inside
sub-packages:

	bus        keyed mailbox rendezvousing the inbound frames with the waiters
	comm       reconnector: synchronous reopen for senders, async for waiters
	endp       agent address parsing and building
	handshake  wallet connect and the pairing chains of both roles
	mesg       admin protocol messages, inbound frames and their keys
	pairwise   pairwise connections and their cache
	pltype     message types and payload class names
	remote     payload channel to a paired party, tails transfer
	trans      websocket transport and its lifecycle callbacks
	utils      settings, version and small helpers
*/
package agent
