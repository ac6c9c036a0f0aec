/*
Package main is the findy-agent-conn CLI. It connects to a mediating agent,
pairs with other parties through invitations and exchanges payloads and tails
files over the pairwise connections. The sim command runs a local agent
simulator for development and testing.

# Sub-packages

	agent    the connection layer: bus, trans, comm, handshake, remote, ..
	client   the agent connection used by the upper layers
	cmds     command objects run by the CLI
	cmd      the cobra CLI
	core     connection status and error types
	server   the agent simulator
	std      payload data models
*/
package main
