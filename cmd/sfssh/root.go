package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mit-pdos/go-simplefs/config"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/sfs"
	"github.com/mit-pdos/go-simplefs/util"
)

// shell is the state shared by every subcommand of one invocation.
type shell struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	sh := &shell{v: config.New()}
	root := &cobra.Command{
		Use:   "sfssh",
		Short: "Inspect and modify sfs disk images",
		Long: `sfssh operates on a disk image holding an sfs file system. Files
are named by inode number. The image path comes from --image, the
"image" config key or SFS_IMAGE.`,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return sh.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			util.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&sh.cfgFile, "config", "", "config file (default ./sfs.yaml or $HOME/.config/sfs/sfs.yaml)")
	flags.StringP("image", "i", "", "disk image path")
	flags.Bool("debug", false, "enable debug logging")
	flags.Uint64("debug-level", 1, "debug verbosity when --debug is set")
	flags.String("log-format", "human", "log format: json or human")
	sh.v.BindPFlag("image", flags.Lookup("image"))
	sh.v.BindPFlag("debug", flags.Lookup("debug"))
	sh.v.BindPFlag("debug_level", flags.Lookup("debug-level"))
	sh.v.BindPFlag("log_format", flags.Lookup("log-format"))

	root.AddCommand(
		sh.formatCmd(),
		sh.debugCmd(),
		sh.mountCmd(),
		sh.createCmd(),
		sh.removeCmd(),
		sh.statCmd(),
		sh.catCmd(),
		sh.copyinCmd(),
		sh.copyoutCmd(),
		sh.exportCmd(),
		sh.importCmd(),
	)
	return root
}

func (sh *shell) setup() error {
	cfg, err := config.Load(sh.v, sh.cfgFile)
	if err != nil {
		return err
	}
	sh.cfg = cfg
	util.Debug = cfg.Verbosity()
	return util.InitLogger(cfg.LoggerConfig())
}

func (sh *shell) imagePath() (string, error) {
	if sh.cfg.Image == "" {
		return "", fmt.Errorf("no image given (use --image or SFS_IMAGE)")
	}
	return sh.cfg.Image, nil
}

// openImage opens an existing image, sized from its file length.
func (sh *shell) openImage() (*disk.FileDisk, error) {
	path, err := sh.imagePath()
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.Size() == 0 || uint64(st.Size())%disk.BlockSize != 0 {
		return nil, fmt.Errorf("%s: size %d is not a whole number of blocks", path, st.Size())
	}
	return disk.NewFileDisk(path, uint64(st.Size())/disk.BlockSize)
}

// closeDisk closes d and reports its I/O counts.
func closeDisk(d *disk.FileDisk) error {
	s := d.Stats()
	util.DPrintf(0, "%d disk block reads, %d disk block writes\n", s.Reads, s.Writes)
	return d.Close()
}

// withFS mounts the image and runs f against it.
func (sh *shell) withFS(f func(fs *sfs.FileSystem) error) (err error) {
	d, err := sh.openImage()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeDisk(d); err == nil {
			err = cerr
		}
	}()
	fs := sfs.MkFileSystem()
	if err := fs.Mount(d); err != nil {
		return err
	}
	defer fs.Unmount()
	return f(fs)
}
