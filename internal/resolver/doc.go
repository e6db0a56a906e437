// Package resolver computes which processes a person has to file. Given the
// targets they selected, it follows each process's dependency list to a
// fixed point and maps the resulting targets back onto catalog processes.
// Cycles are legal and mean the processes are filed together; unknown targets
// are dropped rather than reported.
package resolver
