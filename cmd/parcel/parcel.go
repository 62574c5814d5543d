package main

import "github.com/replaykit/parcel/cmd/parcel/internal"

func main() {
	internal.Execute()
}
