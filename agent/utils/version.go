package utils

// Version of the findy-agent-conn.
const Version = "v0.1.0"
