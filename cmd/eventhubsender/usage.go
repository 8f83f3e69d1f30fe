package main

import (
	"fmt"
	"io"
)

const requiredArgs = 4

const usageText = `Arguments: namespace path issuer-name issuer-key
There are three ways to send to an event hub:
  1) Allow the event hub to decide where to put the message:
     path argument = your event hub name
  2) Send all messages to a specific partition of the event hub:
     path argument = eventhubname/Partitions/partitionid
     for example: myhub/Partitions/3
  3) Provide a partition key which the event hub hashes to decide where to
     put the message (all messages with same key will go to same partition):
     path argument = your event hub name
     provide partition keys at runtime
`

func printUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}
