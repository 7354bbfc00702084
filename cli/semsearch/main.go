package main

import (
	"os"

	semsearchcmder "github.com/papercomputeco/semsearch/cmd/semsearch"
	embeddingutils "github.com/papercomputeco/semsearch/pkg/embeddings/utils"
)

func main() {
	cmd := semsearchcmder.NewSemsearchCmd()
	err := cmd.Execute()
	_ = embeddingutils.CloseShared()
	if err != nil {
		os.Exit(1)
	}
}
