package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/image"
	"github.com/mit-pdos/go-simplefs/sfs"
	"github.com/mit-pdos/go-simplefs/util"
)

// chunk is how much copyin and copyout move per engine call.
const chunk = 4 * disk.BlockSize

func parseInum(s string) (common.Inum, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad inode number %q", s)
	}
	return common.Inum(n), nil
}

func (sh *shell) formatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format [blocks]",
		Short: "Create the image if needed and lay out an empty file system",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			path, err := sh.imagePath()
			if err != nil {
				return err
			}
			nblocks := sh.cfg.Blocks
			if len(args) == 1 {
				nblocks, err = strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("bad block count %q", args[0])
				}
			}
			if nblocks == 0 {
				return fmt.Errorf("no block count given")
			}
			d, err := disk.NewFileDisk(path, nblocks)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := closeDisk(d); err == nil {
					err = cerr
				}
			}()
			if err := sfs.MkFileSystem().Format(d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "disk formatted.\n")
			return nil
		},
	}
}

func (sh *shell) debugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Dump the superblock and every valid inode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			d, err := sh.openImage()
			if err != nil {
				return err
			}
			defer func() {
				if cerr := closeDisk(d); err == nil {
					err = cerr
				}
			}()
			r, err := sfs.Debug(d)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), r.String())
			return nil
		},
	}
}

func (sh *shell) mountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mount",
		Short: "Check that the image mounts and report free blocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sh.withFS(func(fs *sfs.FileSystem) error {
				sb, err := fs.Super()
				if err != nil {
					return err
				}
				free, err := fs.NumFree()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "disk mounted: %d blocks, %d free, %d inodes.\n",
					sb.Blocks, free, sb.Inodes)
				return nil
			})
		},
	}
}

func (sh *shell) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Allocate a new, empty inode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sh.withFS(func(fs *sfs.FileSystem) error {
				inum, err := fs.Create()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created inode %d.\n", inum)
				return nil
			})
		},
	}
}

func (sh *shell) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <inode>",
		Short: "Free an inode and its blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inum, err := parseInum(args[0])
			if err != nil {
				return err
			}
			return sh.withFS(func(fs *sfs.FileSystem) error {
				if err := fs.Remove(inum); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed inode %d.\n", inum)
				return nil
			})
		},
	}
}

func (sh *shell) statCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <inode>",
		Short: "Print the size of an inode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inum, err := parseInum(args[0])
			if err != nil {
				return err
			}
			return sh.withFS(func(fs *sfs.FileSystem) error {
				sz, err := fs.Stat(inum)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "inode %d has size %d bytes.\n", inum, sz)
				return nil
			})
		},
	}
}

func (sh *shell) catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <inode>",
		Short: "Write the contents of an inode to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inum, err := parseInum(args[0])
			if err != nil {
				return err
			}
			return sh.withFS(func(fs *sfs.FileSystem) error {
				_, err := copyOut(fs, inum, cmd.OutOrStdout())
				return err
			})
		},
	}
}

func (sh *shell) copyinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copyin <file> <inode>",
		Short: "Copy a host file into an inode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inum, err := parseInum(args[1])
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return sh.withFS(func(fs *sfs.FileSystem) error {
				n, err := copyIn(fs, inum, f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d bytes copied\n", n)
				return nil
			})
		},
	}
}

func (sh *shell) copyoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copyout <inode> <file>",
		Short: "Copy an inode out to a host file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inum, err := parseInum(args[0])
			if err != nil {
				return err
			}
			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			return sh.withFS(func(fs *sfs.FileSystem) error {
				n, err := copyOut(fs, inum, f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d bytes copied\n", n)
				return f.Close()
			})
		},
	}
}

func (sh *shell) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write a checksummed, optionally compressed copy of the image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			d, err := sh.openImage()
			if err != nil {
				return err
			}
			defer func() {
				if cerr := closeDisk(d); err == nil {
					err = cerr
				}
			}()
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			hdr, err := image.Export(d, f, sh.cfg.Codec())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported image %v (%d blocks, %v).\n",
				hdr.ID, hdr.Blocks, hdr.Codec)
			return f.Close()
		},
	}
	cmd.Flags().String("codec", "", "compression: none, xz or bzip2")
	sh.v.BindPFlag("export.codec", cmd.Flags().Lookup("codec"))
	return cmd
}

func (sh *shell) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the image with the contents of an exported copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			path, err := sh.imagePath()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			hb := make([]byte, image.HDRSZ)
			if _, err := io.ReadFull(f, hb); err != nil {
				return fmt.Errorf("%s: %w", args[0], image.ErrBadHeader)
			}
			hdr, err := image.DecodeHeader(hb)
			if err != nil {
				return err
			}
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return err
			}
			d, err := disk.NewFileDisk(path, hdr.Blocks)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := closeDisk(d); err == nil {
					err = cerr
				}
			}()
			if _, err := image.Import(f, d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported image %v (%d blocks).\n", hdr.ID, hdr.Blocks)
			return nil
		},
	}
}

// copyIn writes all of r into inum starting at offset 0.
func copyIn(fs *sfs.FileSystem, inum common.Inum, r io.Reader) (uint64, error) {
	p := make([]byte, chunk)
	var off uint64
	for {
		n, err := io.ReadFull(r, p)
		if n > 0 {
			w, werr := fs.Write(inum, p[:n], off)
			off += w
			if werr != nil {
				return off, werr
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return off, nil
		}
		if err != nil {
			return off, err
		}
	}
}

// copyOut writes the whole of inum to w.
func copyOut(fs *sfs.FileSystem, inum common.Inum, w io.Writer) (uint64, error) {
	sz, err := fs.Stat(inum)
	if err != nil {
		return 0, err
	}
	p := make([]byte, chunk)
	var off uint64
	for off < sz {
		n, err := fs.Read(inum, p[:util.Min(chunk, sz-off)], off)
		if err != nil {
			return off, err
		}
		if _, err := w.Write(p[:n]); err != nil {
			return off, err
		}
		off += n
	}
	return off, nil
}
