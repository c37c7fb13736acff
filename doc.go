// Package ragdex answers questions over documents uploaded into named
// sessions. It embeds the same ingest and chat pipeline the ragdex server
// runs: text extraction, overlapping chunking, embedding, top-K retrieval
// scoped per session, optional query rewriting and a grounded answer.
//
// The index lives in process memory unless WithValkey or WithRedis is given.
//
//	client, err := ragdex.New(ctx,
//	    ragdex.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	    ragdex.WithChatModel("gpt-4o-mini"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	f, _ := ragdex.FileFromPath("report.pdf")
//	client.Index(ctx, "alice", f)
//	ans, _ := client.Ask(ctx, "alice", "What were the Q3 risks?")
//	fmt.Println(ans.Text)
package ragdex
